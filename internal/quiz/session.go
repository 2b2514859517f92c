package quiz

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cramingo-backend/internal/models"
)

type Mode string

const (
	ModeTextInput      Mode = "text-input"
	ModeMultipleChoice Mode = "multiple-choice"
)

type Result string

const (
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
)

const numDistractors = 3

var (
	ErrCompleted       = errors.New("quiz session is completed")
	ErrOutOfRange      = errors.New("question index out of range")
	ErrNoQuestions     = errors.New("no usable questions in set")
	ErrInvalidSettings = errors.New("invalid quiz settings")
	ErrWrongMode       = errors.New("mode not enabled for this session")
)

type Settings struct {
	QuizTypes        []Mode `json:"quiz_types"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
}

// CheckResult is what the semantic answer checker returns for a free-text
// submission.
type CheckResult struct {
	IsCorrect bool   `json:"is_correct"`
	IsClose   bool   `json:"is_close"`
	Feedback  string `json:"feedback"`
}

// AnswerChecker judges a free-text answer against the card's answer.
type AnswerChecker interface {
	Check(ctx context.Context, userAnswer, correctAnswer string) (CheckResult, error)
}

// DistractorSource produces plausible wrong options for a multiple-choice
// question.
type DistractorSource interface {
	Distractors(ctx context.Context, question, correctAnswer string, n int) ([]string, error)
}

type Feedback struct {
	Text    string `json:"text"`
	IsClose bool   `json:"is_close"`
}

type Score struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Session drives one study run over a fixed card sequence.
//
// Every per-question slice is indexed by the card's position in the original
// (unshuffled) sequence — the actual index — so reshuffling the display
// order never moves previously recorded answers. order maps display position
// to actual index; currentIdx is a display position.
type Session struct {
	mu sync.Mutex

	ID      uuid.UUID
	OwnerID uuid.UUID
	SetID   uuid.UUID

	cards    []models.Flashcard
	settings Settings
	skipped  int

	order      []int
	currentIdx int
	mode       Mode
	showAnswer bool
	completed  bool
	score      Score

	answers   []string
	results   []Result
	answered  []bool
	feedback  []*Feedback
	options   [][]string
	seq       []uint64
	bookmarks map[int]bool

	lastActive time.Time
}

// NewSession builds a session over cards. Cards whose answer side is
// image-only are filtered out first (the answer checker needs text to
// compare against); the count of dropped cards is surfaced via Skipped.
func NewSession(ownerID, setID uuid.UUID, cards []models.Flashcard, settings Settings) (*Session, error) {
	if len(settings.QuizTypes) == 0 {
		return nil, ErrInvalidSettings
	}
	for _, m := range settings.QuizTypes {
		if m != ModeTextInput && m != ModeMultipleChoice {
			return nil, ErrInvalidSettings
		}
	}

	usable := make([]models.Flashcard, 0, len(cards))
	skipped := 0
	for _, c := range cards {
		if c.Answer == "" {
			skipped++
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return nil, ErrNoQuestions
	}

	s := &Session{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		SetID:      setID,
		cards:      usable,
		settings:   settings,
		skipped:    skipped,
		bookmarks:  make(map[int]bool),
		lastActive: time.Now(),
	}
	s.initState()
	return s, nil
}

// initState allocates fresh per-question tracking and a (possibly shuffled)
// display order. Called from NewSession and Reset.
func (s *Session) initState() {
	n := len(s.cards)
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	if s.settings.ShuffleQuestions {
		rand.Shuffle(n, func(i, j int) {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		})
	}

	s.currentIdx = 0
	s.mode = s.settings.QuizTypes[0]
	s.showAnswer = false
	s.completed = false
	s.score = Score{}
	s.answers = make([]string, n)
	s.results = make([]Result, n)
	s.answered = make([]bool, n)
	s.feedback = make([]*Feedback, n)
	s.options = make([][]string, n)
	s.seq = make([]uint64, n)
	s.bookmarks = make(map[int]bool)
}

func (s *Session) touch() { s.lastActive = time.Now() }

// Skipped reports how many cards were excluded at initialization.
func (s *Session) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// SetMode switches the active answer mode. The mode must be one of the
// session's configured quiz types.
func (s *Session) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.settings.QuizTypes {
		if m == mode {
			s.mode = mode
			s.touch()
			return nil
		}
	}
	return ErrWrongMode
}

type SubmitResult struct {
	ActualIndex int       `json:"actual_index"`
	Result      Result    `json:"result"`
	Feedback    *Feedback `json:"feedback,omitempty"`
	Score       Score     `json:"score"`
	// Superseded is set when a newer submission for the same question won
	// the race; nothing was recorded for this one.
	Superseded bool `json:"superseded,omitempty"`
}

// SubmitAnswer records an answer for the current question. In multiple-choice
// mode correctness is a case-insensitive exact match. In text-input mode the
// checker is consulted; if it fails, correctness falls back to exact match
// with no feedback — a checker outage never blocks the answer.
//
// Resubmission overwrites the recorded answer and moves the score by at most
// one in each direction, so the aggregate always reflects only the latest
// result per question.
func (s *Session) SubmitAnswer(ctx context.Context, raw string, checker AnswerChecker) (*SubmitResult, error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return nil, ErrCompleted
	}
	s.touch()
	actual := s.order[s.currentIdx]
	card := s.cards[actual]
	mode := s.mode

	if mode == ModeMultipleChoice {
		res := CheckResult{IsCorrect: equalAnswers(raw, card.Answer)}
		out := s.applyLocked(actual, raw, res, nil)
		s.mu.Unlock()
		return out, nil
	}

	// Free-text: the checker call blocks on the network, so it runs outside
	// the lock. The token detects a newer submission for the same question
	// finishing first; the stale result is discarded.
	s.seq[actual]++
	token := s.seq[actual]
	s.mu.Unlock()

	res, err := checkWithFallback(ctx, checker, raw, card.Answer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq[actual] != token {
		return &SubmitResult{ActualIndex: actual, Superseded: true, Score: s.score}, nil
	}

	var fb *Feedback
	if err == nil && res.Feedback != "" {
		fb = &Feedback{Text: res.Feedback, IsClose: res.IsClose}
	}
	return s.applyLocked(actual, raw, res, fb), nil
}

func checkWithFallback(ctx context.Context, checker AnswerChecker, raw, correct string) (CheckResult, error) {
	if checker == nil {
		return CheckResult{IsCorrect: equalAnswers(raw, correct)}, errors.New("no answer checker configured")
	}
	res, err := checker.Check(ctx, raw, correct)
	if err != nil {
		return CheckResult{IsCorrect: equalAnswers(raw, correct)}, err
	}
	return res, nil
}

func equalAnswers(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *Session) applyLocked(actual int, raw string, res CheckResult, fb *Feedback) *SubmitResult {
	newResult := ResultIncorrect
	if res.IsCorrect {
		newResult = ResultCorrect
	}

	if !s.answered[actual] {
		if newResult == ResultCorrect {
			s.score.Correct++
		} else {
			s.score.Incorrect++
		}
	} else if prev := s.results[actual]; prev != newResult {
		// Re-answer with a different outcome: move one point between the
		// buckets instead of double counting.
		if newResult == ResultCorrect {
			s.score.Correct++
			s.score.Incorrect--
		} else {
			s.score.Correct--
			s.score.Incorrect++
		}
	}

	s.answers[actual] = raw
	s.results[actual] = newResult
	s.feedback[actual] = fb
	s.answered[actual] = true
	if s.order[s.currentIdx] == actual {
		s.showAnswer = true
	}

	return &SubmitResult{
		ActualIndex: actual,
		Result:      newResult,
		Feedback:    fb,
		Score:       s.score,
	}
}

// Options returns the multiple-choice option list for the current question,
// generating and caching it on first use. On collaborator failure the list
// degrades to the correct answer alone rather than blocking.
func (s *Session) Options(ctx context.Context, src DistractorSource) ([]string, error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return nil, ErrCompleted
	}
	s.touch()
	actual := s.order[s.currentIdx]
	if cached := s.options[actual]; cached != nil {
		out := append([]string(nil), cached...)
		s.mu.Unlock()
		return out, nil
	}
	card := s.cards[actual]
	s.mu.Unlock()

	var distractors []string
	if src != nil {
		if d, err := src.Distractors(ctx, card.Question, card.Answer, numDistractors); err == nil {
			distractors = d
		}
	}

	opts := make([]string, 0, len(distractors)+1)
	opts = append(opts, card.Answer)
	for _, d := range distractors {
		if d != "" && !equalAnswers(d, card.Answer) {
			opts = append(opts, d)
		}
	}
	rand.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another call may have raced us here; first write wins.
	if s.options[actual] == nil {
		s.options[actual] = opts
	}
	return append([]string(nil), s.options[actual]...), nil
}

// ToggleBookmark flips the bookmark on the current question and reports the
// new state. Bookmarks are keyed by actual index.
func (s *Session) ToggleBookmark() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return false, ErrCompleted
	}
	s.touch()
	actual := s.order[s.currentIdx]
	if s.bookmarks[actual] {
		delete(s.bookmarks, actual)
		return false, nil
	}
	s.bookmarks[actual] = true
	return true, nil
}

// GoTo jumps to a display position. Previously answered questions reopen in
// the revealed state.
func (s *Session) GoTo(displayIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return ErrCompleted
	}
	if displayIndex < 0 || displayIndex >= len(s.order) {
		return ErrOutOfRange
	}
	s.touch()
	s.currentIdx = displayIndex
	s.showAnswer = s.answered[s.order[displayIndex]]
	return nil
}

// Next advances to the following question, or completes the session when
// already at the last one.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return ErrCompleted
	}
	s.touch()
	if s.currentIdx >= len(s.order)-1 {
		s.completed = true
		return nil
	}
	s.currentIdx++
	s.showAnswer = s.answered[s.order[s.currentIdx]]
	return nil
}

// Reset discards all per-question state and starts over, reshuffling when
// the session was created with shuffling enabled.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.initState()
}

// View is a snapshot of the session for the current question.
type View struct {
	ID            uuid.UUID   `json:"id"`
	SetID         uuid.UUID   `json:"set_id"`
	Mode          Mode        `json:"mode"`
	CurrentIndex  int         `json:"current_index"`
	ActualIndex   int         `json:"actual_index"`
	TotalCards    int         `json:"total_cards"`
	SkippedCount  int         `json:"skipped_count"`
	Question      string      `json:"question"`
	QuestionImage *string     `json:"question_image,omitempty"`
	ShowAnswer    bool        `json:"show_answer"`
	Answer        string      `json:"answer,omitempty"`
	UserAnswer    string      `json:"user_answer,omitempty"`
	Result        Result      `json:"result,omitempty"`
	Feedback      *Feedback   `json:"feedback,omitempty"`
	Bookmarked    bool        `json:"bookmarked"`
	Completed     bool        `json:"completed"`
	Score         Score       `json:"score"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	actual := s.order[s.currentIdx]
	card := s.cards[actual]
	v := View{
		ID:            s.ID,
		SetID:         s.SetID,
		Mode:          s.mode,
		CurrentIndex:  s.currentIdx,
		ActualIndex:   actual,
		TotalCards:    len(s.cards),
		SkippedCount:  s.skipped,
		Question:      card.Question,
		QuestionImage: card.QuestionImage,
		ShowAnswer:    s.showAnswer,
		Bookmarked:    s.bookmarks[actual],
		Completed:     s.completed,
		Score:         s.score,
	}
	if s.showAnswer || s.completed {
		v.Answer = card.Answer
		v.UserAnswer = s.answers[actual]
		v.Result = s.results[actual]
		v.Feedback = s.feedback[actual]
	}
	return v
}

// QuestionReview is one question's final record in the results view, keyed
// by actual index.
type QuestionReview struct {
	ActualIndex int       `json:"actual_index"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	UserAnswer  string    `json:"user_answer"`
	Answered    bool      `json:"answered"`
	Result      Result    `json:"result,omitempty"`
	Feedback    *Feedback `json:"feedback,omitempty"`
	Bookmarked  bool      `json:"bookmarked"`
}

type Results struct {
	Completed  bool             `json:"completed"`
	Score      Score            `json:"score"`
	Unanswered int              `json:"unanswered"`
	Skipped    int              `json:"skipped"`
	Questions  []QuestionReview `json:"questions"`
}

func (s *Session) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Results{
		Completed: s.completed,
		Score:     s.score,
		Skipped:   s.skipped,
		Questions: make([]QuestionReview, len(s.cards)),
	}
	for i, card := range s.cards {
		r := QuestionReview{
			ActualIndex: i,
			Question:    card.Question,
			Answer:      card.Answer,
			UserAnswer:  s.answers[i],
			Answered:    s.answered[i],
			Bookmarked:  s.bookmarks[i],
		}
		if s.answered[i] {
			r.Result = s.results[i]
			r.Feedback = s.feedback[i]
		} else {
			out.Unanswered++
		}
		out.Questions[i] = r
	}
	return out
}
