package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-lms/internal/store"
)

// Faculty is a staff member on the faculty roster.
type Faculty struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Bio          string `json:"bio,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Learner is a student on the learner roster.
type Learner struct {
	ID                     string `json:"_id"`
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	Grade                  string `json:"grade,omitempty"`
	Status                 string `json:"status,omitempty"`
	Address                string `json:"address,omitempty"`
	Allergies              string `json:"allergies,omitempty"`
	MedicalConditions      string `json:"medicalConditions,omitempty"`
	EmergencyContactName   string `json:"emergencyContactName,omitempty"`
	EmergencyContactNumber string `json:"emergencyContactNumber,omitempty"`
	MedicalAid             string `json:"medicalAid,omitempty"`
	ParentName             string `json:"parentName,omitempty"`
	Relationship           string `json:"relationship,omitempty"`
	ParentContact          string `json:"parentContact,omitempty"`
	ParentEmail            string `json:"parentEmail,omitempty"`
	PasswordHash           string `json:"passwordHash,omitempty"`
}

func (f Faculty) key() string { return f.ID }
func (l Learner) key() string { return l.ID }

func (f Faculty) public() Faculty {
	f.PasswordHash = ""
	return f
}

func (l Learner) public() Learner {
	l.PasswordHash = ""
	return l
}

// Roster entries carry a password only as a bcrypt hash, and lists never
// return it.
type member[T any] interface {
	Faculty | Learner
	key() string
	public() T
}

var learnerSeed = sync.OnceValue(func() []Learner {
	return []Learner{
		{
			ID: "l1", Name: "Thabo Mokoena", Email: "thabo@school.edu", Grade: "10", Status: "Active",
			Address: "123 Main St", Allergies: "None", MedicalConditions: "Asthma",
			EmergencyContactName: "Nomsa Mokoena", EmergencyContactNumber: "0821234567", MedicalAid: "Discovery",
			ParentName: "Nomsa Mokoena", Relationship: "Mother", ParentContact: "0821234567", ParentEmail: "nomsa@family.com",
			PasswordHash: mustHash("123456"),
		},
		{
			ID: "l2", Name: "Ayanda Nkosi", Email: "ayanda@school.edu", Grade: "9", Status: "Inactive",
			Address: "456 School Rd", Allergies: "Peanuts",
			EmergencyContactName: "Sipho Nkosi", EmergencyContactNumber: "0839876543",
			ParentName: "Sipho Nkosi", Relationship: "Father", ParentContact: "0839876543", ParentEmail: "sipho@family.com",
			PasswordHash: mustHash("abcdef"),
		},
	}
})

var (
	facultyRoster = store.Collection{
		Key: store.KeyFaculty,
		Default: func() any {
			return []Faculty{{
				ID: "f1", Name: "Thandi Mokoena", Email: "thandi@school.edu", Role: "educator",
				Phone: "0821234567", Subject: "Mathematics", Bio: "Passionate about numbers and nurturing minds.",
			}}
		},
	}
	learnerRoster = store.Collection{
		Key:     store.KeyLearners,
		Default: func() any { return learnerSeed() },
	}
)

// Faculty lists the faculty roster.
func (s *Service) Faculty(ctx context.Context) ([]Faculty, error) {
	return listMembers[Faculty](ctx, s, facultyRoster)
}

// AddFaculty adds a staff member. password may be empty.
func (s *Service) AddFaculty(ctx context.Context, in Faculty, password string) (Faculty, error) {
	in.Name, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if err := required("name", in.Name); err != nil {
		return Faculty{}, err
	}
	if err := required("email", in.Email); err != nil {
		return Faculty{}, err
	}
	return addMember(ctx, s, facultyRoster, in, password, func(f *Faculty, id, hash string) {
		f.ID, f.PasswordHash = id, hash
	})
}

// UpdateFaculty merges the JSON fields in patch into member id. A "password"
// field replaces the stored hash.
func (s *Service) UpdateFaculty(ctx context.Context, id string, patch json.RawMessage) (Faculty, error) {
	return updateMember[Faculty](ctx, s, facultyRoster, id, patch)
}

// RemoveFaculty deletes member id.
func (s *Service) RemoveFaculty(ctx context.Context, id string) error {
	return removeMember[Faculty](ctx, s, facultyRoster, id)
}

// Learners lists the learner roster.
func (s *Service) Learners(ctx context.Context) ([]Learner, error) {
	return listMembers[Learner](ctx, s, learnerRoster)
}

// AddLearner adds a learner. Status defaults to Active.
func (s *Service) AddLearner(ctx context.Context, in Learner, password string) (Learner, error) {
	in.Name, in.Email = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if err := required("name", in.Name); err != nil {
		return Learner{}, err
	}
	if err := required("email", in.Email); err != nil {
		return Learner{}, err
	}
	if in.Status == "" {
		in.Status = "Active"
	}
	return addMember(ctx, s, learnerRoster, in, password, func(l *Learner, id, hash string) {
		l.ID, l.PasswordHash = id, hash
	})
}

// UpdateLearner merges the JSON fields in patch into learner id.
func (s *Service) UpdateLearner(ctx context.Context, id string, patch json.RawMessage) (Learner, error) {
	return updateMember[Learner](ctx, s, learnerRoster, id, patch)
}

// RemoveLearner deletes learner id.
func (s *Service) RemoveLearner(ctx context.Context, id string) error {
	return removeMember[Learner](ctx, s, learnerRoster, id)
}

// CheckLearnerPassword reports whether password matches learner id's hash.
func (s *Service) CheckLearnerPassword(ctx context.Context, id, password string) (bool, error) {
	list, err := load[[]Learner](ctx, s, learnerRoster)
	if err != nil {
		return false, err
	}
	for _, l := range list {
		if l.ID == id {
			return l.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(password)) == nil, nil
		}
	}
	return false, fmt.Errorf("learner %s: %w", id, ErrNotFound)
}

func listMembers[T member[T]](ctx context.Context, s *Service, c store.Collection) ([]T, error) {
	list, err := load[[]T](ctx, s, c)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(list))
	for i, m := range list {
		out[i] = m.public()
	}
	return out, nil
}

func addMember[T member[T]](ctx context.Context, s *Service, c store.Collection, in T, password string, set func(*T, string, string)) (T, error) {
	var hash string
	if password != "" {
		h, err := hashPassword(password)
		if err != nil {
			var zero T
			return zero, err
		}
		hash = h
	}
	set(&in, s.newID(), hash)

	err := update(ctx, s, c, func(list *[]T) error {
		*list = append(*list, in)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return in.public(), nil
}

func updateMember[T member[T]](ctx context.Context, s *Service, c store.Collection, id string, patch json.RawMessage) (T, error) {
	var fields map[string]any
	if err := json.Unmarshal(patch, &fields); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	password, _ := fields["password"].(string)
	delete(fields, "password")
	delete(fields, "passwordHash")
	delete(fields, "_id")

	var hash string
	if password != "" {
		h, err := hashPassword(password)
		if err != nil {
			var zero T
			return zero, err
		}
		hash = h
	}

	var out T
	err := update(ctx, s, c, func(list *[]T) error {
		for i, m := range *list {
			if m.key() != id {
				continue
			}
			merged, err := merge(m, fields)
			if err != nil {
				return err
			}
			if hash != "" {
				merged, err = merge(merged, map[string]any{"passwordHash": hash})
				if err != nil {
					return err
				}
			}
			(*list)[i] = merged
			out = merged.public()
			return nil
		}
		return fmt.Errorf("%s %s: %w", c.Key, id, ErrNotFound)
	})
	return out, err
}

func removeMember[T member[T]](ctx context.Context, s *Service, c store.Collection, id string) error {
	return update(ctx, s, c, func(list *[]T) error {
		for i, m := range *list {
			if m.key() == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%s %s: %w", c.Key, id, ErrNotFound)
	})
}

// merge overlays fields onto v's JSON form.
func merge[T any](v T, fields map[string]any) (T, error) {
	var zero T
	data, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	var base map[string]any
	if err := json.Unmarshal(data, &base); err != nil {
		return zero, err
	}
	for k, f := range fields {
		base[k] = f
	}
	data, err = json.Marshal(base)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return out, nil
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

func mustHash(password string) string {
	h, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}
