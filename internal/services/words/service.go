package words

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/mcoot/drawguess/internal/dependencies/random"
)

// ErrNoWords is returned when picking from an empty vocabulary
var ErrNoWords = errors.New("word list is empty")

// DefaultWords is the built-in vocabulary, matching the labels the classifier knows
var DefaultWords = []string{
	"cat", "dog", "house", "tree", "car", "fish", "flower", "sun", "star",
	"apple", "banana", "butterfly", "airplane", "axe", "basketball", "bed",
	"bee", "bicycle", "camera", "cake", "dragon", "face", "fork", "hamburger",
	"hat", "helicopter", "hourglass", "mushroom", "nose", "pencil", "piano",
	"radio", "scissors", "shorts", "skateboard", "snowflake", "snowman",
	"spoon", "strawberry", "vase", "watermelon", "wheel", "zebra", "zigzag",
	"umbrella",
}

// Service deals secret words from a shuffled deck
type Service struct {
	random random.Random

	mu    sync.Mutex
	words []string
	deck  []string
}

// New creates a word service loaded with the built-in vocabulary
func New(rnd random.Random) *Service {
	s := &Service{random: rnd}
	s.LoadWords(DefaultWords)
	return s
}

// LoadFromFile replaces the vocabulary with a file (one word per line)
func (s *Service) LoadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(words) == 0 {
		return ErrNoWords
	}

	s.LoadWords(words)
	return nil
}

// LoadWords replaces the vocabulary and reshuffles the deck
func (s *Service) LoadWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(words))
	s.words = s.words[:0]
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		s.words = append(s.words, w)
	}
	s.deck = nil
}

// WordCount returns the size of the vocabulary
func (s *Service) WordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}

// Pick draws the next word not in exclude. When every word is excluded the
// next word off the deck is returned anyway.
func (s *Service) Pick(exclude map[string]struct{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.words) == 0 {
		return "", ErrNoWords
	}

	for pass := 0; pass < 2; pass++ {
		if len(s.deck) == 0 {
			s.reshuffleLocked()
		}
		for len(s.deck) > 0 {
			word := s.popLocked()
			if _, used := exclude[word]; !used {
				return word, nil
			}
		}
	}

	if len(s.deck) == 0 {
		s.reshuffleLocked()
	}
	return s.popLocked(), nil
}

func (s *Service) popLocked() string {
	word := s.deck[len(s.deck)-1]
	s.deck = s.deck[:len(s.deck)-1]
	return word
}

func (s *Service) reshuffleLocked() {
	s.deck = make([]string, len(s.words))
	copy(s.deck, s.words)
	random.Shuffle(s.random, len(s.deck), func(i, j int) {
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	})
}
