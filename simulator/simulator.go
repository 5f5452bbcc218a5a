package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimConfig controls the shape and pace of a simulation run.
type SimConfig struct {
	NumUsers         int
	NumCommunities   int
	SimulationTime   time.Duration
	PostFrequency    float64 // posts per user per hour
	CommentFrequency float64 // comments per user per hour
	VoteFrequency    float64 // votes per user per hour
	DisconnectRate   float64
	ReconnectRate    float64
	ZipfS            float64
	ServerURL        string
}

// Stats aggregates request outcomes across all simulation workers.
type Stats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	ActiveUsers     int
	TotalPosts      int
	TotalComments   int
	TotalVotes      int
}

// SimulatedUser tracks one registered account and its local view of
// what it has created and voted on.
type SimulatedUser struct {
	ID          string
	Token       string
	Username    string
	Email       string
	IsConnected bool
	Posts       []string
	Comments    []string
	VotedPosts  map[string]int // postID -> last vote value
	Memberships []string       // community IDs the user joined
}

// Simulator drives load against a running server over its HTTP API.
type Simulator struct {
	config      SimConfig
	stats       *Stats
	users       []*SimulatedUser
	communities []string
	client      *http.Client
	mu          sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &Stats{
			StartTime: time.Now(),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createUsers(ctx); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users registered, is the server running at %s?", s.config.ServerURL)
	}

	log.Printf("Phase 2: Creating %d communities...", s.config.NumCommunities)
	if err := s.createCommunities(ctx); err != nil {
		return fmt.Errorf("failed to create communities: %w", err)
	}

	log.Printf("Phase 3: Simulating community memberships...")
	if err := s.simulateMemberships(ctx); err != nil {
		return fmt.Errorf("failed to simulate memberships: %w", err)
	}

	log.Printf("Initialization completed")
	return nil
}

func (s *Simulator) createUsers(ctx context.Context) error {
	// Suffix usernames with a run id so reruns against a live database
	// do not collide with accounts from earlier runs.
	runID := uuid.NewString()[:8]

	const numWorkers = 5
	jobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	rateLimiter := time.NewTicker(100 * time.Millisecond)
	defer rateLimiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					Username:    fmt.Sprintf("sim_%s_%d", runID, n),
					Email:       fmt.Sprintf("sim_%s_%d@example.com", runID, n),
					IsConnected: true,
					VotedPosts:  make(map[string]int),
				}
				if err := s.registerAndLogin(ctx, user); err != nil {
					log.Printf("Failed to register user %s: %v", user.Username, err)
					continue
				}
				results <- user
			}
		}()
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				close(jobs)
				return
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	for user := range results {
		s.users = append(s.users, user)
	}

	log.Printf("Registered %d users", len(s.users))
	return nil
}

func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser) error {
	registerData := map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"password": "simpass123",
	}
	resp, err := s.request(ctx, "POST", "/user/register", registerData, "")
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	var registered struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &registered); err != nil {
		return fmt.Errorf("parse register response: %w", err)
	}
	user.ID = registered.ID

	loginData := map[string]interface{}{
		"email":    user.Email,
		"password": "simpass123",
	}
	resp, err = s.request(ctx, "POST", "/user/login", loginData, "")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		UserID  string `json:"userId"`
	}
	if err := json.Unmarshal(resp, &login); err != nil {
		return fmt.Errorf("parse login response: %w", err)
	}
	if !login.Success || login.Token == "" {
		return fmt.Errorf("login rejected for %s", user.Email)
	}
	user.Token = login.Token
	return nil
}

var communityThemes = []string{
	"gaming", "tech", "science", "music", "movies",
	"books", "sports", "food", "travel", "art",
	"photography", "fitness", "programming", "news", "memes",
	"history", "nature", "pets", "fashion", "diy",
}

func (s *Simulator) createCommunities(ctx context.Context) error {
	// The first tenth of the user base acts as community founders.
	numCreators := len(s.users) / 10
	if numCreators == 0 {
		numCreators = 1
	}
	creators := make([]*SimulatedUser, numCreators)
	copy(creators, s.users[:numCreators])
	rand.Shuffle(len(creators), func(i, j int) {
		creators[i], creators[j] = creators[j], creators[i]
	})

	s.communities = make([]string, 0, s.config.NumCommunities)

	for i := 0; i < s.config.NumCommunities; i++ {
		creator := creators[i%len(creators)]
		theme := communityThemes[rand.Intn(len(communityThemes))]
		name := fmt.Sprintf("%s_%s_%d", theme, uuid.NewString()[:6], i)

		data := map[string]interface{}{
			"name":        name,
			"description": fmt.Sprintf("A community for %s enthusiasts", theme),
		}
		resp, err := s.request(ctx, "POST", "/communities", data, creator.Token)
		if err != nil {
			log.Printf("Failed to create community %s: %v", name, err)
			continue
		}

		var community struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &community); err != nil {
			log.Printf("Failed to parse community response: %v", err)
			continue
		}

		s.communities = append(s.communities, community.ID)
		creator.Memberships = append(creator.Memberships, community.ID)

		time.Sleep(50 * time.Millisecond)
	}

	log.Printf("Created %d communities", len(s.communities))
	return nil
}

func (s *Simulator) simulateMemberships(ctx context.Context) error {
	if len(s.communities) == 0 {
		return fmt.Errorf("no communities available")
	}

	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.communities)))

	for _, user := range s.users {
		if len(user.Memberships) > 0 {
			continue // founders already belong to their community
		}

		numJoins := int(zipf.Uint64()) + 1
		available := make([]string, len(s.communities))
		copy(available, s.communities)
		rand.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})

		for i := 0; i < numJoins && i < len(available); i++ {
			communityID := available[i]
			data := map[string]interface{}{"communityId": communityID}
			if _, err := s.request(ctx, "POST", "/communities/membership", data, user.Token); err != nil {
				log.Printf("Failed to join community: %v", err)
				continue
			}
			user.Memberships = append(user.Memberships, communityID)
		}

		time.Sleep(25 * time.Millisecond)
	}

	return nil
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for _, user := range s.users {
				if user.IsConnected {
					if rand.Float64() < s.config.DisconnectRate {
						user.IsConnected = false
					}
				} else if rand.Float64() < s.config.ReconnectRate {
					user.IsConnected = true
				}
			}
			s.mu.Unlock()
		}
	}
}

// request issues one HTTP call against the target server, recording
// latency and outcome. An empty token sends the request unauthenticated.
func (s *Simulator) request(ctx context.Context, method, endpoint string, data interface{}, token string) ([]byte, error) {
	var body []byte
	var err error
	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.ServerURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequestMetrics(start, err)
		return nil, err
	}
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		s.recordRequestMetrics(start, readErr)
		return nil, readErr
	}

	if resp.StatusCode >= 400 {
		statusErr := fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(payload))
		s.recordRequestMetrics(start, statusErr)
		return nil, statusErr
	}

	s.recordRequestMetrics(start, nil)
	return payload, nil
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			activeUsers := 0
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					activeUsers++
				}
			}
			s.mu.RUnlock()

			log.Printf("\nSimulation metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request rate: %.2f req/sec", requestRate)
			log.Printf("- Success rate: %.1f%%", successRate)
			log.Printf("- Average latency: %v", s.stats.AverageLatency)
			log.Printf("- Active users: %d/%d", activeUsers, len(s.users))
			log.Printf("- Total posts: %d", s.stats.TotalPosts)
			log.Printf("- Total comments: %d", s.stats.TotalComments)
			log.Printf("- Total votes: %d", s.stats.TotalVotes)
			log.Printf("- Failed requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// Metrics is a point-in-time summary of a simulation run.
type Metrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	TotalComments     int
	TotalVotes        int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

func (s *Simulator) GetMetrics() Metrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)

	activeUsers := 0
	s.mu.RLock()
	for _, user := range s.users {
		if user.IsConnected {
			activeUsers++
		}
	}
	s.mu.RUnlock()

	return Metrics{
		TotalUsers:        len(s.users),
		ActiveUsers:       activeUsers,
		TotalPosts:        s.stats.TotalPosts,
		TotalComments:     s.stats.TotalComments,
		TotalVotes:        s.stats.TotalVotes,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}
