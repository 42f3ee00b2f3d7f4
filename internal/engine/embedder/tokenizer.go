package embedder

// encoded is a tokenized batch ready for inference. All slices are flat
// [batchSize * seqLen], padded to the longest sequence in the batch.
type encoded struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// tokenizer performs uncased BERT WordPiece tokenization.
type tokenizer struct {
	vocab     *vocab
	maxSeqLen int
}

func newTokenizer(vocabPath string, maxSeqLen int) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	return &tokenizer{vocab: v, maxSeqLen: maxSeqLen}, nil
}

// encode returns [CLS] tokens... [SEP] for one text, truncated so the whole
// sequence fits in maxSeqLen.
func (t *tokenizer) encode(text string) []int64 {
	ids := []int64{t.vocab.cls}
	for _, word := range basicTokenize(text) {
		ids = t.vocab.wordpiece(ids, word)
	}
	if len(ids) > t.maxSeqLen-1 {
		ids = ids[:t.maxSeqLen-1]
	}
	return append(ids, t.vocab.sep)
}

// encodeBatch tokenizes texts and packs them, preserving input order.
func (t *tokenizer) encodeBatch(texts []string) encoded {
	if len(texts) == 0 {
		return encoded{}
	}

	seqs := make([][]int64, len(texts))
	seqLen := 0
	for i, text := range texts {
		seqs[i] = t.encode(text)
		seqLen = max(seqLen, len(seqs[i]))
	}

	total := len(texts) * seqLen
	b := encoded{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total), // single segment: all zeros
		batchSize:     int64(len(texts)),
		seqLen:        int64(seqLen),
	}
	for i, seq := range seqs {
		row := i * seqLen
		for j := 0; j < seqLen; j++ {
			if j < len(seq) {
				b.inputIDs[row+j] = seq[j]
				b.attentionMask[row+j] = 1
			} else {
				b.inputIDs[row+j] = t.vocab.pad
			}
		}
	}
	return b
}
