package chapter

import "sort"

// Order returns one owner's chapters sorted ascending by ordering key.
// Chapters with equal keys keep their input order. The input slice is not modified.
// If any filename lacks an ordering key the error is returned and no ordering is
// produced.
func Order(chapters []Chapter) ([]Chapter, error) {
	keyed := make([]keyedChapter, len(chapters))
	for i, c := range chapters {
		key, err := ParseOrderingKey(c.Filename)
		if err != nil {
			return nil, err
		}
		keyed[i] = keyedChapter{key: key, chapter: c}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].key < keyed[j].key
	})

	ordered := make([]Chapter, len(keyed))
	for i, k := range keyed {
		ordered[i] = k.chapter
	}
	return ordered, nil
}

// keyedChapter caches the parsed key so sorting parses each filename once.
type keyedChapter struct {
	key     int64
	chapter Chapter
}
