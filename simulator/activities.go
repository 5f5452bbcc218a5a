package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// SimulateActivities runs post, comment, and vote generation loops
// until the context is cancelled. Comments and votes hold off until a
// handful of posts exist to target.
func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	postsAvailable := make(chan struct{})
	var once sync.Once

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosts(ctx, func() {
			once.Do(func() { close(postsAvailable) })
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			log.Printf("Starting comments after posts available...")
			s.simulateComments(ctx)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			log.Printf("Starting votes after posts available...")
			s.simulateVotes(ctx)
		}
	}()

	wg.Wait()
	return nil
}

const activityWorkers = 5

// runActivityLoop is the shared skeleton of the three activity loops:
// a ticker fans connected users out to a fixed worker pool.
func (s *Simulator) runActivityLoop(ctx context.Context, act func(*SimulatedUser)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	jobs := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < activityWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if user.IsConnected {
					act(user)
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				select {
				case jobs <- user:
				default:
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Simulator) simulatePosts(ctx context.Context, onPost func()) {
	log.Printf("Starting post simulation...")

	perTick := (s.config.PostFrequency / 3600.0) / 2.0

	s.runActivityLoop(ctx, func(user *SimulatedUser) {
		if len(user.Memberships) == 0 || rand.Float64() >= perTick {
			return
		}
		communityID := user.Memberships[rand.Intn(len(user.Memberships))]

		data := map[string]interface{}{
			"title":       fmt.Sprintf("Post by %s at %d", user.Username, time.Now().Unix()),
			"content":     fmt.Sprintf("Content from **%s** at %s", user.Username, time.Now().Format(time.RFC3339)),
			"postType":    "text",
			"communityId": communityID,
		}

		resp, err := s.request(ctx, "POST", "/posts", data, user.Token)
		if err != nil {
			log.Printf("Failed to create post: %v", err)
			return
		}

		var post struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &post); err != nil {
			return
		}

		s.mu.Lock()
		user.Posts = append(user.Posts, post.ID)
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.TotalPosts++
		count := s.stats.TotalPosts
		s.stats.mu.Unlock()

		log.Printf("Created post by %s (total: %d)", user.Username, count)
		if count >= 10 {
			onPost()
		}
	})
}

func (s *Simulator) simulateComments(ctx context.Context) {
	perTick := (s.config.CommentFrequency / 3600.0) / 2.0

	s.runActivityLoop(ctx, func(user *SimulatedUser) {
		if rand.Float64() >= perTick {
			return
		}
		postID, err := s.randomPost(ctx, user)
		if err != nil {
			return
		}

		data := map[string]interface{}{
			"content": fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
			"postId":  postID,
		}

		// A third of comments reply to an existing comment instead of
		// the post itself, to grow real threads.
		if rand.Float64() < 0.33 {
			if parentID, err := s.randomComment(ctx, user, postID); err == nil {
				data["parentId"] = parentID
			}
		}

		resp, err := s.request(ctx, "POST", "/comments", data, user.Token)
		if err != nil {
			log.Printf("Failed to create comment: %v", err)
			return
		}

		var comment struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &comment); err == nil {
			s.mu.Lock()
			user.Comments = append(user.Comments, comment.ID)
			s.mu.Unlock()
		}

		s.stats.mu.Lock()
		s.stats.TotalComments++
		count := s.stats.TotalComments
		s.stats.mu.Unlock()
		log.Printf("Created comment by %s (total: %d)", user.Username, count)
	})
}

func (s *Simulator) simulateVotes(ctx context.Context) {
	perTick := (s.config.VoteFrequency / 3600.0) / 2.0

	s.runActivityLoop(ctx, func(user *SimulatedUser) {
		if rand.Float64() >= perTick {
			return
		}
		postID, err := s.randomPost(ctx, user)
		if err != nil {
			return
		}

		value := 1
		if rand.Float64() >= 0.7 {
			value = -1
		}

		s.mu.RLock()
		previous, voted := user.VotedPosts[postID]
		s.mu.RUnlock()
		if voted && previous == value {
			// Occasionally retract instead of skipping the duplicate.
			if rand.Float64() < 0.2 {
				data := map[string]interface{}{"postId": postID, "remove": true}
				if _, err := s.request(ctx, "POST", "/posts/vote", data, user.Token); err == nil {
					s.mu.Lock()
					delete(user.VotedPosts, postID)
					s.mu.Unlock()
				}
			}
			return
		}

		data := map[string]interface{}{
			"postId":   postID,
			"isUpvote": value == 1,
		}
		if _, err := s.request(ctx, "POST", "/posts/vote", data, user.Token); err != nil {
			log.Printf("Failed to cast vote: %v", err)
			return
		}

		s.mu.Lock()
		user.VotedPosts[postID] = value
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.TotalVotes++
		s.stats.mu.Unlock()
		log.Printf("Vote by %s on post %s (upvote: %v)", user.Username, postID, value == 1)
	})
}

// randomPost picks a post out of one of the user's communities.
func (s *Simulator) randomPost(ctx context.Context, user *SimulatedUser) (string, error) {
	if len(user.Memberships) == 0 {
		return "", fmt.Errorf("no community memberships")
	}

	shuffled := make([]string, len(user.Memberships))
	copy(shuffled, user.Memberships)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, communityID := range shuffled {
		resp, err := s.request(ctx, "GET",
			fmt.Sprintf("/posts/community?communityId=%s&limit=25", communityID), nil, user.Token)
		if err != nil {
			continue
		}

		var posts []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &posts); err != nil || len(posts) == 0 {
			continue
		}
		return posts[rand.Intn(len(posts))].ID, nil
	}

	return "", fmt.Errorf("no posts found in any joined community")
}

func (s *Simulator) randomComment(ctx context.Context, user *SimulatedUser, postID string) (string, error) {
	resp, err := s.request(ctx, "GET",
		fmt.Sprintf("/comments/post?postId=%s", postID), nil, user.Token)
	if err != nil {
		return "", err
	}

	var comments []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &comments); err != nil {
		return "", err
	}
	if len(comments) == 0 {
		return "", fmt.Errorf("no comments on post %s", postID)
	}
	return comments[rand.Intn(len(comments))].ID, nil
}
