package lesson

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrInvalidDocument wraps structural problems found by Validate.
var ErrInvalidDocument = errors.New("invalid document")

// Validate checks invariants that the type system does not enforce:
// non-negative XP and well-formed questions at every level.
func Validate(doc *Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	for t, term := range doc.Terms {
		at := PathTo(t)
		if err := term.Assessment.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, at, err)
		}
		for p, topic := range term.Topics {
			at := at.Child(p)
			if err := topic.Assessment.Validate(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, at, err)
			}
			for l, les := range topic.Lessons {
				at := at.Child(l)
				if les.XP < 0 {
					return fmt.Errorf("%w: %s: negative xp", ErrInvalidDocument, at)
				}
				if err := les.Assessment.Validate(); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, at, err)
				}
				for c, ch := range les.Chapters {
					at := at.Child(c)
					if ch.XP < 0 {
						return fmt.Errorf("%w: %s: negative xp", ErrInvalidDocument, at)
					}
					if err := ch.Assessment.Validate(); err != nil {
						return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, at, err)
					}
				}
			}
		}
	}
	return nil
}

// Revision fingerprints the encoded document. Two documents with the same
// content have the same revision.
func Revision(doc *Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}
