package lesson

// SampleID is the id of the built-in lesson structure.
const SampleID = "lesson1"

// Sample returns the built-in "Algebra Basics" structure used when nothing
// has been stored or seeded yet. Its node ids are fixed so repeated calls
// produce equal documents.
func Sample() *Document {
	doc := &Document{
		ID:      SampleID,
		Title:   "Algebra Basics",
		Subject: "Math",
		Grade:   "10",
		Terms: []Term{{
			ID:      "term-1",
			Title:   "Term 1",
			Summary: "Foundations of Algebra",
			Topics: []Topic{{
				ID:      "topic-1",
				Title:   "Expressions",
				Summary: "Simplifying expressions",
				Lessons: []Lesson{{
					ID:      "lesson-1",
					Title:   "Intro to Variables",
					Summary: "What is a variable?",
					Chapters: []Chapter{{
						ID:      "chapter-1",
						Title:   "Chapter 1",
						Summary: "Understanding variables",
						Content: "<p>Variables are symbols...</p>",
						XP:      10,
					}},
				}},
			}},
		}},
	}
	doc.Normalize()
	return doc
}
