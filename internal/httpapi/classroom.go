package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/p-n-ai/pai-lms/internal/classroom"
)

func (s *Server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.Announcements(r.Context(), r.URL.Query().Get("audience"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePostAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in classroom.Announcement
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.AuthorID == "" {
		in.AuthorID = r.Header.Get(HeaderUser)
	}
	out, err := s.classroom.PostAnnouncement(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.Rooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var in classroom.Room
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = r.Header.Get(HeaderUser)
	}
	out, err := s.classroom.CreateRoom(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleRoomMessages(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.RoomMessages(r.Context(), r.PathValue("room"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePostRoomMessage(w http.ResponseWriter, r *http.Request) {
	var in classroom.RoomMessage
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.SenderID == "" {
		in.SenderID = r.Header.Get(HeaderUser)
	}
	out, err := s.classroom.PostRoomMessage(r.Context(), r.PathValue("room"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.Thread(r.Context(), r.PathValue("thread"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSendDirect(w http.ResponseWriter, r *http.Request) {
	var in classroom.DirectMessage
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.SenderID == "" {
		in.SenderID = r.Header.Get(HeaderUser)
	}
	out, err := s.classroom.SendDirect(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Roster bodies carry the plain password next to the member fields.
type facultyRequest struct {
	classroom.Faculty
	Password string `json:"password"`
}

type learnerRequest struct {
	classroom.Learner
	Password string `json:"password"`
}

func (s *Server) handleFaculty(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.Faculty(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddFaculty(w http.ResponseWriter, r *http.Request) {
	var in facultyRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.Faculty.PasswordHash = ""
	out, err := s.classroom.AddFaculty(r.Context(), in.Faculty, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := decode(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	out, err := s.classroom.UpdateFaculty(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveFaculty(w http.ResponseWriter, r *http.Request) {
	if err := s.classroom.RemoveFaculty(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLearners(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.Learners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddLearner(w http.ResponseWriter, r *http.Request) {
	var in learnerRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.Learner.PasswordHash = ""
	out, err := s.classroom.AddLearner(r.Context(), in.Learner, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateLearner(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := decode(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	out, err := s.classroom.UpdateLearner(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveLearner(w http.ResponseWriter, r *http.Request) {
	if err := s.classroom.RemoveLearner(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Password string `json:"password"`
}

// handleLearnerLogin checks a learner's password. A wrong password is 401.
func (s *Server) handleLearnerLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.classroom.CheckLearnerPassword(r.Context(), r.PathValue("id"), in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]bool{"ok": ok})
}
