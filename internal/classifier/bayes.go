// Package classifier provides the statistical text classifier behind the
// classifier signal.
package classifier

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed training.yaml
var defaultCorpus []byte

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Sample is one labelled training text
type Sample struct {
	Text string `yaml:"text"`
	Spam bool   `yaml:"spam"`
}

// Corpus is a labelled training set
type Corpus struct {
	Samples []Sample `yaml:"samples"`
}

// LoadCorpus decodes a YAML corpus
func LoadCorpus(r io.Reader) (*Corpus, error) {
	var c Corpus
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode training corpus: %w", err)
	}
	if len(c.Samples) == 0 {
		return nil, fmt.Errorf("training corpus has no samples")
	}
	return &c, nil
}

// LoadCorpusFile reads a YAML corpus from disk
func LoadCorpusFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training corpus: %w", err)
	}
	defer f.Close()
	return LoadCorpus(f)
}

// DefaultCorpus returns the embedded training corpus
func DefaultCorpus() *Corpus {
	c, err := LoadCorpus(strings.NewReader(string(defaultCorpus)))
	if err != nil {
		panic(fmt.Sprintf("embedded training corpus is invalid: %v", err))
	}
	return c
}

// NaiveBayes is a multinomial naive Bayes classifier with Laplace smoothing
type NaiveBayes struct {
	mu sync.RWMutex

	spamWords map[string]int
	hamWords  map[string]int
	vocab     map[string]struct{}

	totalSpamWords  int
	totalHamWords   int
	totalSpamEmails int
	totalHamEmails  int

	smoothing float64
}

// NewNaiveBayes creates an untrained classifier
func NewNaiveBayes(smoothing float64) *NaiveBayes {
	if smoothing <= 0 {
		smoothing = 1.0
	}
	return &NaiveBayes{
		spamWords: make(map[string]int),
		hamWords:  make(map[string]int),
		vocab:     make(map[string]struct{}),
		smoothing: smoothing,
	}
}

// NewFromCorpus creates a classifier trained on every sample of the corpus
func NewFromCorpus(corpus *Corpus, smoothing float64) *NaiveBayes {
	nb := NewNaiveBayes(smoothing)
	for _, s := range corpus.Samples {
		nb.Train(s.Text, s.Spam)
	}
	return nb
}

// Train adds one labelled text
func (nb *NaiveBayes) Train(text string, spam bool) {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	for _, word := range tokenize(text) {
		nb.vocab[word] = struct{}{}
		if spam {
			nb.spamWords[word]++
			nb.totalSpamWords++
		} else {
			nb.hamWords[word]++
			nb.totalHamWords++
		}
	}
	if spam {
		nb.totalSpamEmails++
	} else {
		nb.totalHamEmails++
	}
}

// PredictSpamProbability implements core.TextClassifier. It returns 0.5 when
// untrained or when the text has no tokens.
func (nb *NaiveBayes) PredictSpamProbability(text string) float64 {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	if nb.totalSpamEmails == 0 || nb.totalHamEmails == 0 {
		return 0.5
	}
	words := tokenize(text)
	if len(words) == 0 {
		return 0.5
	}

	total := float64(nb.totalSpamEmails + nb.totalHamEmails)
	logSpam := math.Log(float64(nb.totalSpamEmails) / total)
	logHam := math.Log(float64(nb.totalHamEmails) / total)

	vocab := float64(len(nb.vocab))
	for _, word := range words {
		logSpam += math.Log((float64(nb.spamWords[word]) + nb.smoothing) /
			(float64(nb.totalSpamWords) + nb.smoothing*vocab))
		logHam += math.Log((float64(nb.hamWords[word]) + nb.smoothing) /
			(float64(nb.totalHamWords) + nb.smoothing*vocab))
	}

	// Logistic form of spam / (spam + ham) avoids underflow on long texts
	return 1 / (1 + math.Exp(logHam-logSpam))
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
