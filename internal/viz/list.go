package viz

import (
	"fmt"
	"io"

	"github.com/storymap/storymap/internal/chapter"
)

// RenderList writes the list view: one "title: summary" line per chapter, in the
// order given.
func RenderList(w io.Writer, chapters []chapter.Chapter) error {
	for _, c := range chapters {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Title, c.Summary); err != nil {
			return err
		}
	}
	return nil
}
