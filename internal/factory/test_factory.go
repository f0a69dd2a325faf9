package factory

import (
	"time"

	"github.com/mcoot/drawguess/internal/dependencies/mocks"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/services/words"
	"github.com/mcoot/drawguess/internal/storage/memory"
	"github.com/mcoot/drawguess/internal/testutil"
)

// TestWords is the small vocabulary loaded by NewTestApp
var TestWords = []string{"cat", "dog", "sun", "tree", "fish"}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockOracle *mocks.MockOracle
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Lobby codes come from MockRandom, so tests queue them with QueueString.
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockOracle := mocks.NewMockOracle()

	wordSource := words.New(mockRandom)
	wordSource.LoadWords(TestWords)

	app := newWithDependencies(
		memory.New(mockClock, mockRandom),
		memory.NewSessionStore(),
		mockClock,
		mockRandom,
		mockOracle,
		wordSource,
		Config{Game: game.DefaultConfig()},
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockOracle: mockOracle,
	}
}
