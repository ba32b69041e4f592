package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"leaderboard-watch/internal/domain"
)

// maxRecent bounds the recent-activity feed; oldest entries are evicted.
const maxRecent = 20

// LeaderboardAPI abstracts the backend's leaderboard endpoints.
type LeaderboardAPI interface {
	RecentSubmissions(ctx context.Context, limit int) ([]domain.SubmissionEntry, error)
	QuizLeaderboard(ctx context.Context, quizID string) ([]domain.LeaderboardRow, domain.Quiz, error)
	GroupLeaderboard(ctx context.Context, groupID string) ([]domain.LeaderboardRow, domain.Group, error)
}

// RoomJoiner signals scoped push interest to the connection manager.
type RoomJoiner interface {
	JoinRoom(roomID string)
}

// SubmissionSink durably records push-notified submissions (optional).
type SubmissionSink interface {
	Record(ctx context.Context, entry domain.SubmissionEntry) error
}

// Snapshot is an immutable view of the watcher state handed to renderers.
type Snapshot struct {
	Scope     domain.Scope
	Recent    []domain.SubmissionEntry
	QuizRows  []domain.LeaderboardRow
	Quiz      domain.Quiz
	GroupRows []domain.LeaderboardRow
	Group     domain.Group
	UpdatedAt time.Time
}

// Watcher keeps the three leaderboard views current under the mixed
// pull/push model: REST snapshots replace state wholesale, push events
// either patch the append-only recent feed locally or trigger a resync of
// the active scope.
type Watcher struct {
	api         LeaderboardAPI
	rooms       RoomJoiner
	sink        SubmissionSink
	recentLimit int
	now         func() time.Time

	mu        sync.RWMutex
	scope     domain.Scope
	recent    []domain.SubmissionEntry
	quizRows  []domain.LeaderboardRow
	quiz      domain.Quiz
	groupRows []domain.LeaderboardRow
	group     domain.Group

	// gen guards against overlapping resyncs of the same scope kind:
	// a response from a superseded load is discarded instead of
	// overwriting newer state.
	gen map[domain.ScopeKind]uint64

	subscribers map[chan Snapshot]struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithRoomJoiner wires room-join signaling for quiz-scoped push events.
func WithRoomJoiner(rooms RoomJoiner) Option {
	return func(w *Watcher) { w.rooms = rooms }
}

// WithSink wires a durable archive for push-notified submissions.
func WithSink(sink SubmissionSink) Option {
	return func(w *Watcher) { w.sink = sink }
}

// WithRecentLimit sets the snapshot size requested from the recent endpoint.
func WithRecentLimit(limit int) Option {
	return func(w *Watcher) {
		if limit > 0 {
			w.recentLimit = limit
		}
	}
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

func NewWatcher(api LeaderboardAPI, opts ...Option) *Watcher {
	w := &Watcher{
		api:         api,
		recentLimit: 10,
		now:         time.Now,
		scope:       domain.Scope{Kind: domain.ScopeRecent},
		gen:         make(map[domain.ScopeKind]uint64),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadRecent replaces the recent-submissions feed. A failed fetch degrades to
// an empty feed and is logged; the view never errors out.
func (w *Watcher) LoadRecent(ctx context.Context) {
	gen := w.bump(domain.ScopeRecent)

	entries, err := w.api.RecentSubmissions(ctx, w.recentLimit)
	if err != nil {
		log.Printf("watch: load recent submissions: %v", err)
		entries = nil
	}
	if len(entries) > maxRecent {
		entries = entries[:maxRecent]
	}

	w.mu.Lock()
	if w.gen[domain.ScopeRecent] != gen {
		w.mu.Unlock()
		return
	}
	w.recent = entries
	w.mu.Unlock()
	w.broadcast()
}

// LoadQuizLeaderboard makes quizID the active scope and replaces its rows
// from a fresh snapshot. On success it also signals room interest so scoped
// push events for that quiz are delivered. On failure the scoped rows are
// cleared and the error surfaced to the caller.
func (w *Watcher) LoadQuizLeaderboard(ctx context.Context, quizID string) error {
	if quizID == "" {
		log.Printf("watch: quiz leaderboard requested without id")
		return domain.ErrQuizIDRequired
	}
	gen := w.selectScope(domain.Scope{Kind: domain.ScopeQuiz, ID: quizID})

	rows, quiz, err := w.api.QuizLeaderboard(ctx, quizID)
	if err != nil {
		w.commitQuiz(gen, quizID, nil, domain.Quiz{ID: quizID})
		return fmt.Errorf("load quiz leaderboard: %w", err)
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	w.commitQuiz(gen, quizID, rows, quiz)

	if w.rooms != nil {
		w.rooms.JoinRoom(quizID)
	}
	return nil
}

// LoadGroupLeaderboard is the group-scope counterpart of
// LoadQuizLeaderboard. Group scope has no push room, so no join is signaled.
func (w *Watcher) LoadGroupLeaderboard(ctx context.Context, groupID string) error {
	if groupID == "" {
		log.Printf("watch: group leaderboard requested without id")
		return domain.ErrGroupIDRequired
	}
	gen := w.selectScope(domain.Scope{Kind: domain.ScopeGroup, ID: groupID})

	rows, group, err := w.api.GroupLeaderboard(ctx, groupID)
	if err != nil {
		w.commitGroup(gen, groupID, nil, domain.Group{ID: groupID})
		return fmt.Errorf("load group leaderboard: %w", err)
	}
	if group.ID == "" {
		group.ID = groupID
	}
	w.commitGroup(gen, groupID, rows, group)
	return nil
}

// Refresh re-runs the loader matching the active scope.
func (w *Watcher) Refresh(ctx context.Context) error {
	scope := w.Scope()
	switch scope.Kind {
	case domain.ScopeQuiz:
		return w.LoadQuizLeaderboard(ctx, scope.ID)
	case domain.ScopeGroup:
		return w.LoadGroupLeaderboard(ctx, scope.ID)
	default:
		w.LoadRecent(ctx)
		return nil
	}
}

// HandleSubmission processes an inbound submissionNotification: the entry is
// prepended to the recent feed (optimistic patch, capped at maxRecent) and,
// when the active scope is that quiz, the scoped board is resynced.
func (w *Watcher) HandleSubmission(ctx context.Context, raw json.RawMessage) {
	entry, err := domain.ParseSubmissionNotification(raw, w.now())
	if err != nil {
		log.Printf("watch: bad submission notification: %v", err)
		return
	}

	w.mu.Lock()
	recent := make([]domain.SubmissionEntry, 0, len(w.recent)+1)
	recent = append(recent, entry)
	recent = append(recent, w.recent...)
	if len(recent) > maxRecent {
		recent = recent[:maxRecent]
	}
	w.recent = recent
	scope := w.scope
	w.mu.Unlock()
	w.broadcast()

	if w.sink != nil {
		if err := w.sink.Record(ctx, entry); err != nil {
			log.Printf("watch: archive submission: %v", err)
		}
	}

	if scope.Kind == domain.ScopeQuiz && scope.ID == entry.QuizID {
		if err := w.LoadQuizLeaderboard(ctx, scope.ID); err != nil {
			log.Printf("watch: resync quiz %s: %v", scope.ID, err)
		}
	}
}

// HandleLeaderboardUpdate resyncs the active scoped board when the backend
// reports a structural change. Unrecognized update types and the unscoped
// recent feed produce no state change.
func (w *Watcher) HandleLeaderboardUpdate(ctx context.Context, raw json.RawMessage) {
	update, err := domain.ParseLeaderboardUpdate(raw)
	if err != nil {
		log.Printf("watch: bad leaderboard update: %v", err)
		return
	}
	if update.Type != domain.LeaderboardUpdateNewSubmission {
		return
	}

	scope := w.Scope()
	switch scope.Kind {
	case domain.ScopeQuiz:
		if err := w.LoadQuizLeaderboard(ctx, scope.ID); err != nil {
			log.Printf("watch: resync quiz %s: %v", scope.ID, err)
		}
	case domain.ScopeGroup:
		if err := w.LoadGroupLeaderboard(ctx, scope.ID); err != nil {
			log.Printf("watch: resync group %s: %v", scope.ID, err)
		}
	}
}

// Scope returns the active view scope.
func (w *Watcher) Scope() domain.Scope {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.scope
}

// Snapshot returns the current state of all three views.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every committed
// state change, seeded with the current state. The caller must invoke the
// returned cancel function to avoid leaks.
func (w *Watcher) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	w.mu.Lock()
	w.subscribers[ch] = struct{}{}
	initial := w.snapshotLocked()
	w.mu.Unlock()

	ch <- initial

	cancel := func() {
		w.mu.Lock()
		if _, ok := w.subscribers[ch]; ok {
			delete(w.subscribers, ch)
			close(ch)
		}
		w.mu.Unlock()
	}
	return ch, cancel
}

// bump starts a new generation for a scope kind, superseding in-flight loads.
func (w *Watcher) bump(kind domain.ScopeKind) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen[kind]++
	return w.gen[kind]
}

// selectScope makes scope active and discards the cached rows of any
// previous scoped selection. Exactly one scope is active at a time.
func (w *Watcher) selectScope(scope domain.Scope) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scope != scope {
		w.quizRows = nil
		w.quiz = domain.Quiz{}
		w.groupRows = nil
		w.group = domain.Group{}
	}
	w.scope = scope
	w.gen[scope.Kind]++
	return w.gen[scope.Kind]
}

func (w *Watcher) commitQuiz(gen uint64, quizID string, rows []domain.LeaderboardRow, quiz domain.Quiz) {
	w.mu.Lock()
	if w.gen[domain.ScopeQuiz] != gen || w.scope.Kind != domain.ScopeQuiz || w.scope.ID != quizID {
		w.mu.Unlock()
		return
	}
	w.quizRows = rows
	w.quiz = quiz
	w.mu.Unlock()
	w.broadcast()
}

func (w *Watcher) commitGroup(gen uint64, groupID string, rows []domain.LeaderboardRow, group domain.Group) {
	w.mu.Lock()
	if w.gen[domain.ScopeGroup] != gen || w.scope.Kind != domain.ScopeGroup || w.scope.ID != groupID {
		w.mu.Unlock()
		return
	}
	w.groupRows = rows
	w.group = group
	w.mu.Unlock()
	w.broadcast()
}

func (w *Watcher) snapshotLocked() Snapshot {
	return Snapshot{
		Scope:     w.scope,
		Recent:    append([]domain.SubmissionEntry(nil), w.recent...),
		QuizRows:  append([]domain.LeaderboardRow(nil), w.quizRows...),
		Quiz:      w.quiz,
		GroupRows: append([]domain.LeaderboardRow(nil), w.groupRows...),
		Group:     w.group,
		UpdatedAt: w.now(),
	}
}

func (w *Watcher) broadcast() {
	// sends happen under the read lock so a concurrent cancel cannot
	// close a channel mid-broadcast
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap := w.snapshotLocked()

	for ch := range w.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow renderer never blocks sync
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
