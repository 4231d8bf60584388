// Package labeledtext only holds the version of the set of tools to turn labeled text corpora into
// tokenized training data.
//
// There are 3 main sub-packages:
//
//   - hub: to download files from HuggingFace Hub, in particular the pretrained tokenizer files.
//   - tokenizers: to create tokenizers from downloaded HuggingFace models.
//   - dataset: reads a labeled corpus, encodes it into fixed-length examples and either iterates
//     over shuffled batches or saves the result to disk.
package labeledtext

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.1.0-dev"
