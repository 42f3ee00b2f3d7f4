// Package headlinescore classifies news headlines as Optimistic, Pessimistic,
// or Neutral (or whatever labels the loaded classifier carries) using
// all-MiniLM-L6-v2 sentence embeddings and a pre-trained linear classifier.
//
// Quick start:
//
//	s, err := headlinescore.New(ctx,
//	    headlinescore.WithModelDir("/opt/huggingface_models/all-MiniLM-L6-v2"),
//	    headlinescore.WithClassifierPath("models/svm.safetensors"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	labels, _ := s.Score(ctx, []string{"Stocks surge after strong jobs report"})
//	fmt.Println(labels[0]) // Optimistic
//
// A Scorer is safe for concurrent use. Loading takes a while; create one and
// share it.
package headlinescore
