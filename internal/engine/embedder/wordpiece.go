package embedder

import (
	"bufio"
	"fmt"
	"os"
)

// maxWordChars matches BERT's max_input_chars_per_word: longer words map
// straight to [UNK].
const maxWordChars = 100

// vocab is a WordPiece vocabulary read from vocab.txt, where the 0-indexed
// line number is the token ID.
type vocab struct {
	ids  map[string]int64
	size int

	pad, unk, cls, sep int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	v := &vocab{ids: make(map[string]int64, 32000)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := scanner.Text()
		if _, dup := v.ids[tok]; !dup {
			v.ids[tok] = int64(v.size)
		}
		v.size++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if v.size == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	for name, dest := range map[string]*int64{
		"[PAD]": &v.pad,
		"[UNK]": &v.unk,
		"[CLS]": &v.cls,
		"[SEP]": &v.sep,
	} {
		id, ok := v.ids[name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", name)
		}
		*dest = id
	}
	return v, nil
}

// wordpiece greedily splits one basic token into the longest vocabulary
// subwords, left to right, appending their IDs to dst. A word that cannot be
// fully decomposed becomes a single [UNK].
func (v *vocab) wordpiece(dst []int64, word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return append(dst, v.unk)
	}

	mark := len(dst)
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64
		found := false
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, found = v.ids[sub]; found {
				break
			}
		}
		if !found {
			return append(dst[:mark], v.unk)
		}
		dst = append(dst, id)
		start = end
	}
	return dst
}
