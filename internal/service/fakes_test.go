package service

import (
	"context"
	"fmt"
	"maps"
	"mime/multipart"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"postservice/internal/cache"
	"postservice/internal/model"
	"postservice/internal/queue"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================
//
// memStore stands in for PostgreSQL. The fake repositories below share one
// store so that cascades and derived counts behave like the real schema.
// WithinTx holds txMu for the whole transaction, which plays the part of the
// row locks, and restores a snapshot when fn fails.

type edge [2]int64

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int64
	clock    time.Time
	users    map[int64]model.User
	profiles map[int64]model.Profile
	posts    map[int64]model.Post
	comments map[int64]model.Comment
	upvotes  map[edge]bool // (user, post)
	follows  map[edge]bool // (follower profile, followee profile)

	// calls records account-deletion steps in the order they ran.
	calls []string
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[int64]model.User{},
		profiles: map[int64]model.Profile{},
		posts:    map[int64]model.Post{},
		comments: map[int64]model.Comment{},
		upvotes:  map[edge]bool{},
		follows:  map[edge]bool{},
	}
}

type snapshot struct {
	nextID   int64
	clock    time.Time
	users    map[int64]model.User
	profiles map[int64]model.Profile
	posts    map[int64]model.Post
	comments map[int64]model.Comment
	upvotes  map[edge]bool
	follows  map[edge]bool
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		nextID:   s.nextID,
		clock:    s.clock,
		users:    maps.Clone(s.users),
		profiles: maps.Clone(s.profiles),
		posts:    maps.Clone(s.posts),
		comments: maps.Clone(s.comments),
		upvotes:  maps.Clone(s.upvotes),
		follows:  maps.Clone(s.follows),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID, s.clock = snap.nextID, snap.clock
	s.users, s.profiles, s.posts, s.comments = snap.users, snap.profiles, snap.posts, snap.comments
	s.upvotes, s.follows = snap.upvotes, snap.follows
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// tick returns a fresh id and a creation time 1ms after the previous one.
func (s *memStore) tick() (int64, time.Time) {
	s.nextID++
	s.clock = s.clock.Add(time.Millisecond)
	return s.nextID, s.clock
}

func (s *memStore) postWithCounts(p model.Post) model.Post {
	p.CommentCount = 0
	for _, c := range s.comments {
		if c.PostID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

func (s *memStore) profileWithCounts(p model.Profile) model.Profile {
	p.FollowerCount, p.FollowingCount = 0, 0
	for e := range s.follows {
		if e[1] == p.ID {
			p.FollowerCount++
		}
		if e[0] == p.ID {
			p.FollowingCount++
		}
	}
	p.Username = s.users[p.UserID].Username
	return p
}

func (s *memStore) profileByUser(userID int64) (model.Profile, bool) {
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p, true
		}
	}
	return model.Profile{}, false
}

func (s *memStore) deletePostLocked(postID int64) {
	delete(s.posts, postID)
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	for e := range s.upvotes {
		if e[1] == postID {
			delete(s.upvotes, e)
		}
	}
}

// sortedPosts returns posts matching keep in creation order.
func (s *memStore) sortedPosts(keep func(model.Post) bool) []model.Post {
	var posts []model.Post
	for _, p := range s.posts {
		if keep(p) {
			posts = append(posts, s.postWithCounts(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts
}

func (s *memStore) upvoteRows(postID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for e := range s.upvotes {
		if e[1] == postID {
			n++
		}
	}
	return n
}

// =============================================================================
// FAKE REPOSITORIES
// =============================================================================

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) Upsert(ctx context.Context, tx *sqlx.Tx, id int64, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; ok {
		return nil
	}
	taken := func(name string) bool {
		for _, u := range r.s.users {
			if u.Username == name {
				return true
			}
		}
		return false
	}
	candidate := username
	for attempt := 2; taken(candidate); attempt++ {
		if attempt == 2 {
			candidate = fmt.Sprintf("%s-%d", username, id)
		} else {
			candidate = fmt.Sprintf("%s-%d-%d", username, id, attempt)
		}
	}
	username = candidate
	_, now := r.s.tick()
	r.s.users[id] = model.User{ID: id, Username: username, CreatedAt: now}
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls = append(r.s.calls, "lock user")
	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	return nil
}

// Delete cascades like the foreign keys do: upvote rows vanish without
// touching any counter.
func (r fakeUserRepo) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls = append(r.s.calls, "delete user")
	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)

	if p, ok := r.s.profileByUser(id); ok {
		delete(r.s.profiles, p.ID)
		for e := range r.s.follows {
			if e[0] == p.ID || e[1] == p.ID {
				delete(r.s.follows, e)
			}
		}
	}
	for postID, p := range r.s.posts {
		if p.UserID == id {
			r.s.deletePostLocked(postID)
		}
	}
	for cid, c := range r.s.comments {
		if c.UserID == id {
			delete(r.s.comments, cid)
		}
	}
	for e := range r.s.upvotes {
		if e[0] == id {
			delete(r.s.upvotes, e)
		}
	}
	return nil
}

type fakeProfileRepo struct{ s *memStore }

func (r fakeProfileRepo) EnsureForUser(ctx context.Context, tx *sqlx.Tx, userID int64, name string) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.profileByUser(userID); ok {
		p = r.s.profileWithCounts(p)
		return &p, nil
	}
	id, now := r.s.tick()
	p := model.Profile{ID: id, UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	r.s.profiles[id] = p
	p = r.s.profileWithCounts(p)
	return &p, nil
}

func (r fakeProfileRepo) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	p = r.s.profileWithCounts(p)
	return &p, nil
}

func (r fakeProfileRepo) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profileByUser(userID)
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	p = r.s.profileWithCounts(p)
	return &p, nil
}

func (r fakeProfileRepo) LockByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Profile, error) {
	return r.GetByID(ctx, id)
}

func (r fakeProfileRepo) GetCounts(ctx context.Context, tx *sqlx.Tx, id int64) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.profileWithCounts(model.Profile{ID: id})
	return p.FollowerCount, p.FollowingCount, nil
}

func (r fakeProfileRepo) List(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.Profile
	for _, p := range r.s.profiles {
		all = append(all, r.s.profileWithCounts(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].ID < all[j].ID
		}
		return all[i].Name < all[j].Name
	})
	return page(all, limit, offset), nil
}

func (r fakeProfileRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.profiles), nil
}

func (r fakeProfileRepo) Update(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	r.s.mu.Lock()
	stored, ok := r.s.profiles[p.ID]
	if !ok {
		r.s.mu.Unlock()
		return nil, model.ErrProfileNotFound
	}
	stored.Name, stored.Bio, stored.BirthDate, stored.Location = p.Name, p.Bio, p.BirthDate, p.Location
	r.s.profiles[p.ID] = stored
	r.s.mu.Unlock()
	return r.GetByID(ctx, p.ID)
}

func (r fakeProfileRepo) SetPicture(ctx context.Context, id int64, key string) (*string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	previous := p.PictureKey
	p.PictureKey = &key
	r.s.profiles[id] = p
	return previous, nil
}

type fakeFollowRepo struct{ s *memStore }

func (r fakeFollowRepo) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if followerID == followeeID {
		return false, model.ErrCannotFollowSelf
	}
	if _, ok := r.s.profiles[followerID]; !ok {
		return false, model.ErrProfileNotFound
	}
	if _, ok := r.s.profiles[followeeID]; !ok {
		return false, model.ErrProfileNotFound
	}
	e := edge{followerID, followeeID}
	if r.s.follows[e] {
		return false, nil
	}
	r.s.follows[e] = true
	return true, nil
}

func (r fakeFollowRepo) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := edge{followerID, followeeID}
	if !r.s.follows[e] {
		return false, nil
	}
	delete(r.s.follows, e)
	return true, nil
}

func (r fakeFollowRepo) ListFollowers(ctx context.Context, profileID int64) ([]model.Profile, error) {
	return r.list(func(e edge) (int64, bool) { return e[0], e[1] == profileID }), nil
}

func (r fakeFollowRepo) ListFollowing(ctx context.Context, profileID int64) ([]model.Profile, error) {
	return r.list(func(e edge) (int64, bool) { return e[1], e[0] == profileID }), nil
}

func (r fakeFollowRepo) list(match func(edge) (int64, bool)) []model.Profile {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profiles := []model.Profile{}
	for e := range r.s.follows {
		if id, ok := match(e); ok {
			profiles = append(profiles, r.s.profileWithCounts(r.s.profiles[id]))
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles
}

func (r fakeFollowRepo) GetFollowerUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.userIDs(userID, true), nil
}

func (r fakeFollowRepo) GetFolloweeUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.userIDs(userID, false), nil
}

func (r fakeFollowRepo) userIDs(userID int64, followers bool) []int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []int64{}
	p, ok := r.s.profileByUser(userID)
	if !ok {
		return ids
	}
	for e := range r.s.follows {
		switch {
		case followers && e[1] == p.ID:
			ids = append(ids, r.s.profiles[e[0]].UserID)
		case !followers && e[0] == p.ID:
			ids = append(ids, r.s.profiles[e[1]].UserID)
		}
	}
	slices.Sort(ids)
	return ids
}

type fakePostRepo struct{ s *memStore }

func (r fakePostRepo) Create(ctx context.Context, userID int64, title string, content, imageKey *string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, model.ErrUserNotFound
	}
	id, now := r.s.tick()
	p := model.Post{ID: id, UserID: userID, Title: title, Content: content, ImageKey: imageKey, CreatedAt: now, UpdatedAt: now}
	r.s.posts[id] = p
	return &p, nil
}

func (r fakePostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	p = r.s.postWithCounts(p)
	return &p, nil
}

func (r fakePostRepo) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posts := []model.Post{}
	for _, id := range postIDs {
		if p, ok := r.s.posts[id]; ok {
			posts = append(posts, r.s.postWithCounts(p))
		}
	}
	return posts, nil
}

func (r fakePostRepo) List(ctx context.Context, ownerID *int64, limit, offset int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.s.sortedPosts(func(p model.Post) bool { return ownerID == nil || p.UserID == *ownerID })
	return page(all, limit, offset), nil
}

func (r fakePostRepo) Count(ctx context.Context, ownerID *int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.sortedPosts(func(p model.Post) bool { return ownerID == nil || p.UserID == *ownerID })), nil
}

func (r fakePostRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Post, error) {
	return r.List(ctx, &userID, limit, 0)
}

func (r fakePostRepo) Update(ctx context.Context, postID, userID int64, req model.UpdatePostRequest) (*model.Post, error) {
	r.s.mu.Lock()
	p, ok := r.s.posts[postID]
	switch {
	case !ok:
		r.s.mu.Unlock()
		return nil, model.ErrPostNotFound
	case p.UserID != userID:
		r.s.mu.Unlock()
		return nil, model.ErrNotPostOwner
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = emptyToNil(req.Content)
	}
	if req.ImageKey != nil {
		p.ImageKey = emptyToNil(req.ImageKey)
	}
	_, p.UpdatedAt = r.s.tick()
	r.s.posts[postID] = p
	r.s.mu.Unlock()
	return r.GetByID(ctx, postID)
}

func (r fakePostRepo) Delete(ctx context.Context, postID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if p.UserID != userID {
		return model.ErrNotPostOwner
	}
	r.s.deletePostLocked(postID)
	return nil
}

func (r fakePostRepo) LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	_, err := r.GetByID(ctx, postID)
	return err
}

func (r fakePostRepo) AddToUpvoteCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return 0, model.ErrPostNotFound
	}
	p.UpvoteCount += delta
	r.s.posts[postID] = p
	return p.UpvoteCount, nil
}

func (r fakePostRepo) GetRecentPostsByUser(ctx context.Context, userID int64, limit int) ([]cache.PostScore, error) {
	return r.GetFeedPostScores(ctx, []int64{userID}, limit)
}

func (r fakePostRepo) GetFeedPostScores(ctx context.Context, userIDs []int64, limit int) ([]cache.PostScore, error) {
	posts, _ := r.GetFeedPage(ctx, userIDs, nil, limit)
	scores := make([]cache.PostScore, len(posts))
	for i, p := range posts {
		scores[i] = cache.PostScore{PostID: p.ID, Timestamp: p.CreatedAt.UnixMilli()}
	}
	return scores, nil
}

func (r fakePostRepo) GetFeedPage(ctx context.Context, userIDs []int64, before *cache.PostScore, limit int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.s.sortedPosts(func(p model.Post) bool {
		if !slices.Contains(userIDs, p.UserID) {
			return false
		}
		if before == nil {
			return true
		}
		ts := p.CreatedAt.UnixMilli()
		return ts < before.Timestamp || (ts == before.Timestamp && p.ID < before.PostID)
	})
	slices.Reverse(all)
	return page(all, limit, 0), nil
}

type fakeCommentRepo struct{ s *memStore }

func (r fakeCommentRepo) Create(ctx context.Context, postID, userID int64, content, imageKey *string) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[postID]; !ok {
		return nil, model.ErrPostNotFound
	}
	id, now := r.s.tick()
	c := model.Comment{ID: id, PostID: postID, UserID: userID, Content: content, ImageKey: imageKey, CreatedAt: now}
	r.s.comments[id] = c
	return &c, nil
}

func (r fakeCommentRepo) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := []model.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

type fakeUpvoteRepo struct{ s *memStore }

func (r fakeUpvoteRepo) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[postID]; !ok {
		return model.ErrPostNotFound
	}
	e := edge{userID, postID}
	if r.s.upvotes[e] {
		return model.ErrUpvoteConflict
	}
	r.s.upvotes[e] = true
	return nil
}

func (r fakeUpvoteRepo) Delete(ctx context.Context, tx *sqlx.Tx, userID, postID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := edge{userID, postID}
	if !r.s.upvotes[e] {
		return false, nil
	}
	delete(r.s.upvotes, e)
	return true, nil
}

func (r fakeUpvoteRepo) ReleaseAllByUser(ctx context.Context, tx *sqlx.Tx, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls = append(r.s.calls, "release upvotes")
	var n int64
	for e := range r.s.upvotes {
		if e[0] != userID {
			continue
		}
		delete(r.s.upvotes, e)
		if p, ok := r.s.posts[e[1]]; ok {
			p.UpvoteCount--
			r.s.posts[e[1]] = p
		}
		n++
	}
	return n, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

// =============================================================================
// MOCKS
// =============================================================================

type mockPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, stream string, event queue.FeedEvent) (string, error)
	events    []queue.FeedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.FeedEvent) (string, error) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}

func (m *mockPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

type mockPictureStore struct {
	uploadFn  func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	deleteFn  func(ctx context.Context, key string) error
	deleted   []string
	uploadNum int
}

func (m *mockPictureStore) UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, file, header)
	}
	m.uploadNum++
	key := fmt.Sprintf("pictures/%d.jpg", m.uploadNum)
	return &model.UploadResult{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (m *mockPictureStore) DeleteObject(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

// =============================================================================
// TEST ENVIRONMENT
// =============================================================================

type testEnv struct {
	store      *memStore
	publisher  *mockPublisher
	pictures   *mockPictureStore
	posts      *PostService
	engagement *EngagementService
	follows    *FollowService
	users      *UserService
	feed       *FeedService
}

var testAssets = PublicURLResolver{BaseURL: "https://cdn.test"}

func newTestEnv() *testEnv {
	s := newMemStore()
	pub := &mockPublisher{}
	pics := &mockPictureStore{}
	paginator := NewPaginator(2, 100)

	return &testEnv{
		store:      s,
		publisher:  pub,
		pictures:   pics,
		posts:      NewPostService(fakePostRepo{s}, fakeCommentRepo{s}, pub, testAssets, paginator),
		engagement: NewEngagementService(s, fakePostRepo{s}, fakeUpvoteRepo{s}, fakeCommentRepo{s}, testAssets),
		follows:    NewFollowService(s, fakeProfileRepo{s}, fakeFollowRepo{s}, pub),
		users: NewUserService(UserServiceDeps{
			Tx:          s,
			UserRepo:    fakeUserRepo{s},
			ProfileRepo: fakeProfileRepo{s},
			FollowRepo:  fakeFollowRepo{s},
			PostRepo:    fakePostRepo{s},
			UpvoteRepo:  fakeUpvoteRepo{s},
			Publisher:   pub,
			Pictures:    pics,
			Assets:      testAssets,
			Paginator:   paginator,
		}),
		feed: NewFeedService(nil, fakePostRepo{s}, fakeFollowRepo{s}, testAssets),
	}
}

// account provisions a user and returns its profile.
func (e *testEnv) account(userID int64, username string) *model.Profile {
	p, err := e.users.EnsureAccount(context.Background(), userID, username)
	if err != nil {
		panic(err)
	}
	return p
}

func (e *testEnv) post(userID int64, title string) *model.PostDetailView {
	p, err := e.posts.Create(context.Background(), userID, model.CreatePostRequest{Title: title})
	if err != nil {
		panic(err)
	}
	return p
}

func strPtr(s string) *string { return &s }
