// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"marshlink/internal/models"
	"marshlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txMarker struct{}

var txKey txMarker

// MemoryStore is a map-backed Store used by the test suite and the
// simulator's local mode. Writes go through one mutex; RunInTransaction
// holds the lock for the whole callback and rolls back to a snapshot when
// the callback fails, so its atomicity matches the Mongo session behavior.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	communities map[primitive.ObjectID]*models.Community
	posts       map[primitive.ObjectID]*models.Post
	comments    map[primitive.ObjectID]*models.Comment
	votes       map[primitive.ObjectID]*models.Vote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[primitive.ObjectID]*models.User),
		communities: make(map[primitive.ObjectID]*models.Community),
		posts:       make(map[primitive.ObjectID]*models.Post),
		comments:    make(map[primitive.ObjectID]*models.Comment),
		votes:       make(map[primitive.ObjectID]*models.Vote),
	}
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// lock acquires the store mutex unless the context carries the transaction
// marker, in which case RunInTransaction already holds it. Returns the
// matching unlock.
func (m *MemoryStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

type memorySnapshot struct {
	users       map[primitive.ObjectID]*models.User
	communities map[primitive.ObjectID]*models.Community
	posts       map[primitive.ObjectID]*models.Post
	comments    map[primitive.ObjectID]*models.Comment
	votes       map[primitive.ObjectID]*models.Vote
}

func (m *MemoryStore) snapshot() *memorySnapshot {
	snap := &memorySnapshot{
		users:       make(map[primitive.ObjectID]*models.User, len(m.users)),
		communities: make(map[primitive.ObjectID]*models.Community, len(m.communities)),
		posts:       make(map[primitive.ObjectID]*models.Post, len(m.posts)),
		comments:    make(map[primitive.ObjectID]*models.Comment, len(m.comments)),
		votes:       make(map[primitive.ObjectID]*models.Vote, len(m.votes)),
	}
	for id, u := range m.users {
		snap.users[id] = copyUser(u)
	}
	for id, c := range m.communities {
		snap.communities[id] = copyCommunity(c)
	}
	for id, p := range m.posts {
		cp := *p
		snap.posts[id] = &cp
	}
	for id, c := range m.comments {
		snap.comments[id] = copyComment(c)
	}
	for id, v := range m.votes {
		cp := *v
		snap.votes[id] = &cp
	}
	return snap
}

func (m *MemoryStore) restore(snap *memorySnapshot) {
	m.users = snap.users
	m.communities = snap.communities
	m.posts = snap.posts
	m.comments = snap.comments
	m.votes = snap.votes
}

// RunInTransaction runs fn under the store lock against a restorable
// snapshot. Nested transactions reuse the enclosing one.
func (m *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	txCtx := context.WithValue(ctx, txKey, true)
	if err := fn(txCtx); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Communities = append([]primitive.ObjectID(nil), u.Communities...)
	return &cp
}

func copyCommunity(c *models.Community) *models.Community {
	cp := *c
	cp.Moderators = append([]primitive.ObjectID(nil), c.Moderators...)
	cp.Members = append([]primitive.ObjectID(nil), c.Members...)
	cp.Rules = append([]string(nil), c.Rules...)
	return &cp
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	return &cp
}

// User methods

func (m *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	defer m.lock(ctx)()

	for id, existing := range m.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil)
		}
	}
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer m.lock(ctx)()

	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.Hex())
	}
	return copyUser(user), nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer m.lock(ctx)()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return copyUser(user), nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

func (m *MemoryStore) AdjustUserKarma(ctx context.Context, id primitive.ObjectID, delta int) error {
	defer m.lock(ctx)()

	user, ok := m.users[id]
	if !ok {
		return utils.NewUserNotFoundError(id.Hex())
	}
	user.Karma += delta
	return nil
}

func (m *MemoryStore) UpdateUserActivity(ctx context.Context, id primitive.ObjectID, active bool) error {
	defer m.lock(ctx)()

	user, ok := m.users[id]
	if !ok {
		return utils.NewUserNotFoundError(id.Hex())
	}
	user.IsConnected = active
	user.LastActive = time.Now()
	return nil
}

func (m *MemoryStore) UpdateUserCommunities(ctx context.Context, userID, communityID primitive.ObjectID, join bool) error {
	defer m.lock(ctx)()

	user, ok := m.users[userID]
	if !ok {
		return utils.NewUserNotFoundError(userID.Hex())
	}
	user.Communities = adjustIDSet(user.Communities, communityID, join)
	return nil
}

func adjustIDSet(ids []primitive.ObjectID, id primitive.ObjectID, add bool) []primitive.ObjectID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	if add {
		out = append(out, id)
	}
	return out
}

// Community methods

func (m *MemoryStore) CreateCommunity(ctx context.Context, community *models.Community) error {
	defer m.lock(ctx)()

	for _, existing := range m.communities {
		if strings.EqualFold(existing.Name, community.Name) {
			return utils.NewAppError(utils.ErrCommunityExists, "Community name already taken", nil)
		}
	}
	if community.CreatedAt.IsZero() {
		community.CreatedAt = time.Now()
	}
	if len(community.Moderators) == 0 {
		community.Moderators = []primitive.ObjectID{community.CreatorID}
	}
	if len(community.Members) == 0 {
		community.Members = []primitive.ObjectID{community.CreatorID}
	}
	m.communities[community.ID] = copyCommunity(community)
	return nil
}

func (m *MemoryStore) GetCommunity(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	defer m.lock(ctx)()

	community, ok := m.communities[id]
	if !ok {
		return nil, utils.NewCommunityNotFoundError(id.Hex())
	}
	return copyCommunity(community), nil
}

func (m *MemoryStore) GetCommunityByName(ctx context.Context, name string) (*models.Community, error) {
	defer m.lock(ctx)()

	for _, community := range m.communities {
		if strings.EqualFold(community.Name, name) {
			return copyCommunity(community), nil
		}
	}
	return nil, utils.NewCommunityNotFoundError(name)
}

func (m *MemoryStore) ListCommunities(ctx context.Context) ([]*models.Community, error) {
	defer m.lock(ctx)()

	out := make([]*models.Community, 0, len(m.communities))
	for _, community := range m.communities {
		out = append(out, copyCommunity(community))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdateCommunity(ctx context.Context, community *models.Community) error {
	defer m.lock(ctx)()

	existing, ok := m.communities[community.ID]
	if !ok {
		return utils.NewCommunityNotFoundError(community.ID.Hex())
	}
	existing.Description = community.Description
	existing.Moderators = append([]primitive.ObjectID(nil), community.Moderators...)
	existing.Rules = append([]string(nil), community.Rules...)
	return nil
}

func (m *MemoryStore) DeleteCommunity(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()

	if _, ok := m.communities[id]; !ok {
		return utils.NewCommunityNotFoundError(id.Hex())
	}
	delete(m.communities, id)
	return nil
}

func (m *MemoryStore) UpdateCommunityMembership(ctx context.Context, communityID, userID primitive.ObjectID, join bool) error {
	defer m.lock(ctx)()

	community, ok := m.communities[communityID]
	if !ok {
		return utils.NewCommunityNotFoundError(communityID.Hex())
	}
	community.Members = adjustIDSet(community.Members, userID, join)
	return nil
}

// Post methods

func (m *MemoryStore) InsertPost(ctx context.Context, post *models.Post) error {
	defer m.lock(ctx)()

	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *MemoryStore) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	defer m.lock(ctx)()

	post, ok := m.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	cp := *post
	return &cp, nil
}

func (m *MemoryStore) UpdatePost(ctx context.Context, post *models.Post) error {
	defer m.lock(ctx)()

	existing, ok := m.posts[post.ID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	defer m.lock(ctx)()

	if _, ok := m.posts[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryStore) GetCommunityPosts(ctx context.Context, communityID primitive.ObjectID, limit, offset int) ([]*models.Post, error) {
	defer m.lock(ctx)()

	out := make([]*models.Post, 0)
	for _, post := range m.posts {
		if post.CommunityID == communityID {
			cp := *post
			out = append(out, &cp)
		}
	}
	return pagePosts(out, limit, offset), nil
}

func (m *MemoryStore) GetRecentPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	defer m.lock(ctx)()

	out := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		cp := *post
		out = append(out, &cp)
	}
	return pagePosts(out, limit, offset), nil
}

func pagePosts(posts []*models.Post, limit, offset int) []*models.Post {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if offset >= len(posts) {
		return []*models.Post{}
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}

func (m *MemoryStore) AdjustPostCounters(ctx context.Context, id primitive.ObjectID, commentDelta, upvoteDelta, downvoteDelta int) error {
	defer m.lock(ctx)()

	post, ok := m.posts[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	post.CommentCount += commentDelta
	post.Upvotes += upvoteDelta
	post.Downvotes += downvoteDelta
	post.UpdatedAt = time.Now()
	return nil
}

// Comment methods

func (m *MemoryStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	defer m.lock(ctx)()

	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now
	m.comments[comment.ID] = copyComment(comment)
	return nil
}

func (m *MemoryStore) GetComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	defer m.lock(ctx)()

	comment, ok := m.comments[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return copyComment(comment), nil
}

func (m *MemoryStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	defer m.lock(ctx)()

	existing, ok := m.comments[comment.ID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	existing.Content = comment.Content
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetPostComments(ctx context.Context, postID primitive.ObjectID) ([]*models.Comment, error) {
	defer m.lock(ctx)()

	out := make([]*models.Comment, 0)
	for _, comment := range m.comments {
		if comment.PostID == postID {
			out = append(out, copyComment(comment))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) FindCommentsByParents(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error) {
	defer m.lock(ctx)()

	if len(parentIDs) == 0 {
		return []*models.Comment{}, nil
	}
	wanted := make(map[primitive.ObjectID]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}

	out := make([]*models.Comment, 0)
	for _, comment := range m.comments {
		if comment.ParentID != nil && wanted[*comment.ParentID] {
			out = append(out, copyComment(comment))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteComments(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	defer m.lock(ctx)()

	var deleted int64
	for _, id := range ids {
		if _, ok := m.comments[id]; ok {
			delete(m.comments, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) AdjustCommentCounters(ctx context.Context, id primitive.ObjectID, repliesDelta, upvoteDelta, downvoteDelta int) error {
	defer m.lock(ctx)()

	comment, ok := m.comments[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	comment.RepliesCount += repliesDelta
	comment.Upvotes += upvoteDelta
	comment.Downvotes += downvoteDelta
	comment.UpdatedAt = time.Now()
	return nil
}

// Vote ledger methods

func (m *MemoryStore) findVote(userID, targetID primitive.ObjectID, targetType models.VoteTargetType) *models.Vote {
	for _, vote := range m.votes {
		if vote.UserID == userID && vote.TargetID == targetID && vote.TargetType == targetType {
			return vote
		}
	}
	return nil
}

func (m *MemoryStore) GetVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) (*models.Vote, error) {
	defer m.lock(ctx)()

	vote := m.findVote(userID, targetID, targetType)
	if vote == nil {
		return nil, utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", nil)
	}
	cp := *vote
	return &cp, nil
}

func (m *MemoryStore) InsertVote(ctx context.Context, vote *models.Vote) error {
	defer m.lock(ctx)()

	if m.findVote(vote.UserID, vote.TargetID, vote.TargetType) != nil {
		return utils.NewAppError(utils.ErrAlreadyVoted, "Already voted", nil)
	}
	now := time.Now()
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = now
	}
	vote.UpdatedAt = now
	cp := *vote
	m.votes[vote.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateVoteValue(ctx context.Context, id primitive.ObjectID, value int) error {
	defer m.lock(ctx)()

	vote, ok := m.votes[id]
	if !ok {
		return utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", nil)
	}
	vote.Value = value
	vote.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteVote(ctx context.Context, userID, targetID primitive.ObjectID, targetType models.VoteTargetType) error {
	defer m.lock(ctx)()

	vote := m.findVote(userID, targetID, targetType)
	if vote == nil {
		return utils.NewAppError(utils.ErrVoteNotFound, "Vote not found", nil)
	}
	delete(m.votes, vote.ID)
	return nil
}

func (m *MemoryStore) FindVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) ([]*models.Vote, error) {
	defer m.lock(ctx)()

	wanted := make(map[primitive.ObjectID]bool, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = true
	}

	out := make([]*models.Vote, 0)
	for _, vote := range m.votes {
		if wanted[vote.TargetID] {
			cp := *vote
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteVotesByTargets(ctx context.Context, targetIDs []primitive.ObjectID) (int64, error) {
	defer m.lock(ctx)()

	wanted := make(map[primitive.ObjectID]bool, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = true
	}

	var deleted int64
	for id, vote := range m.votes {
		if wanted[vote.TargetID] {
			delete(m.votes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) TargetScore(ctx context.Context, targetID primitive.ObjectID, targetType models.VoteTargetType) (int, error) {
	defer m.lock(ctx)()

	score := 0
	for _, vote := range m.votes {
		if vote.TargetID == targetID && vote.TargetType == targetType {
			score += vote.Value
		}
	}
	return score, nil
}
