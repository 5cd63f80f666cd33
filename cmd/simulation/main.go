package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ksred/pageturn-api/internal/api"
	"github.com/ksred/pageturn-api/internal/config"
	"github.com/ksred/pageturn-api/internal/database"
	"github.com/ksred/pageturn-api/internal/gateway"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	minBooks        = 5
	maxBooks        = 25
	buyersPerBook   = 2
	gatewaySecret   = "simulation-gateway-secret"
	simulationToken = time.Hour
)

var titles = []string{
	"Intro to Algorithms", "Calculus", "Organic Chemistry", "Linear Algebra Done Right",
	"Principles of Economics", "Campbell Biology", "Physics for Scientists", "Clean Code",
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	mu         sync.Mutex
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

func (rs *routeStats) record(d time.Duration, failed bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if failed {
		rs.failures++
	}
}

// calculate computes performance statistics from recorded durations
func (rs *routeStats) calculate() (min, max, mean, median, p95 time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]
	p95 = rs.durations[int(math.Ceil(float64(len(rs.durations))*0.95))-1]
	return
}

// simulationClient drives the API over HTTP as one user
type simulationClient struct {
	baseURL string
	token   string
	client  *http.Client
	stats   map[string]*routeStats
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Book    json.RawMessage `json:"book"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call sends one request and decodes the envelope. Non-2xx statuses are returned with the envelope.
func (sc *simulationClient) call(route, method, path string, body interface{}) (int, *envelope, error) {
	start := time.Now()
	status := 0
	defer func() {
		sc.stats[route].record(time.Since(start), status >= 400 || status == 0)
	}()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}

	req, err := http.NewRequest(method, sc.baseURL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sc.token)

	resp, err := sc.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return status, nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(raw))
	}
	return status, &env, nil
}

func (sc *simulationClient) submitBook(title string, price float64) (string, error) {
	status, env, err := sc.call("sell", http.MethodPost, "/api/books/sell", map[string]interface{}{
		"title":     title,
		"author":    "Various",
		"price":     price,
		"condition": types.Conditions[rand.Intn(len(types.Conditions))],
		"category":  "Textbook",
		"images":    []string{"/uploads/" + uuid.New().String() + ".jpg"},
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("submit failed with status %d", status)
	}

	var listing types.Listing
	if err := json.Unmarshal(env.Book, &listing); err != nil {
		return "", err
	}
	return listing.ListingID, nil
}

func (sc *simulationClient) approve(listingID string) error {
	status, env, err := sc.call("approve", http.MethodPut, "/api/books/approveBook/"+listingID, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("approve failed with status %d: %+v", status, env.Error)
	}
	return nil
}

func (sc *simulationClient) createOrder(bookID string) (string, error) {
	status, env, err := sc.call("create_order", http.MethodPost, "/api/payments/create-order", map[string]string{"bookId": bookID})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("create order failed with status %d", status)
	}

	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		return "", err
	}
	return order.ID, nil
}

func (sc *simulationClient) verify(capture *gateway.Capture, bookID string) (int, error) {
	status, _, err := sc.call("verify", http.MethodPost, "/api/payments/verify", map[string]string{
		"razorpay_payment_id": capture.PaymentID,
		"razorpay_order_id":   capture.OrderID,
		"razorpay_signature":  capture.Signature,
		"bookId":              bookID,
	})
	return status, err
}

// simulation owns the in-process server and the users acting on it
type simulation struct {
	db       *gorm.DB
	server   *httptest.Server
	services *api.Services
	provider *gateway.MockProvider
	stats    map[string]*routeStats
}

func (s *simulation) as(userID, role string) *simulationClient {
	user := &types.User{UserID: userID, Name: userID, Email: userID + "@pageturn.test", Role: role}
	if err := s.db.Create(user).Error; err != nil {
		log.Fatal().Err(err).Msg("Failed to seed user")
	}

	token, err := s.services.Auth.GenerateToken(userID, role, simulationToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to mint token")
	}
	return &simulationClient{
		baseURL: s.server.URL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats:   s.stats,
	}
}

// startServer builds the full API over an in-memory database and the mock gateway
func startServer(ctx context.Context) (*simulation, *notify.LogMailer, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.New().String())
	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{
		Env:       "simulation",
		JWTSecret: uuid.New().String(),
		Gateway: config.Gateway{
			Mode:                    "mock",
			Secret:                  gatewaySecret,
			MerchantUPIID:           "pageturn@razorpay",
			MerchantDisplayName:     "PageTurn Books",
			MinimumChargeableAmount: 100,
			Currency:                "INR",
		},
	}

	provider := gateway.NewMockProvider(gatewaySecret)
	provider.MinLatency = 5 * time.Millisecond
	provider.MaxLatency = 40 * time.Millisecond

	mailer := &notify.LogMailer{}
	dispatcher := notify.NewDispatcher(notify.NewDeliverer(notify.NewGormDirectory(db), mailer, ""), 2, 512)
	dispatcher.Start(ctx)

	services := api.NewServices(db, cfg, provider, dispatcher)
	server := httptest.NewServer(api.NewRouter(services))

	return &simulation{
		db:       db,
		server:   server,
		services: services,
		provider: provider,
		stats: map[string]*routeStats{
			"sell":         {name: "Submit Book"},
			"approve":      {name: "Approve Book"},
			"create_order": {name: "Create Order"},
			"verify":       {name: "Verify Payment"},
		},
	}, mailer, nil
}

// main runs the marketplace simulation: every book is raced by two buyers
// and exactly one of them must end up owning it.
func main() {
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim, mailer, err := startServer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
	defer sim.server.Close()

	admin := sim.as("admin-"+uuid.New().String()[:8], types.RoleAdmin)

	targetBooks := rand.Intn(maxBooks-minBooks) + minBooks
	log.Info().Int("target_books", targetBooks).Msg("Starting simulation")

	var bookIDs []string
	for i := 0; i < targetBooks; i++ {
		seller := sim.as(fmt.Sprintf("seller-%d-%s", i, uuid.New().String()[:8]), types.RoleUser)
		price := float64(rand.Intn(900) + 100)
		listingID, err := seller.submitBook(titles[i%len(titles)], price)
		if err != nil {
			log.Error().Err(err).Msg("Failed to submit book")
			continue
		}
		if err := admin.approve(listingID); err != nil {
			log.Error().Err(err).Str("listing_id", listingID).Msg("Failed to approve book")
			continue
		}
		bookIDs = append(bookIDs, listingID)
	}
	log.Info().Int("books_listed", len(bookIDs)).Msg("Catalog ready")

	stats := struct {
		sync.Mutex
		Sold       map[string]int
		LostRace   int
		Unexpected int
		StartTime  time.Time
	}{
		Sold:      make(map[string]int),
		StartTime: time.Now(),
	}

	var wg sync.WaitGroup
	for _, bookID := range bookIDs {
		for b := 0; b < buyersPerBook; b++ {
			buyer := sim.as(fmt.Sprintf("buyer-%d-%s", b, uuid.New().String()[:8]), types.RoleUser)
			wg.Add(1)
			go func(bookID string, buyer *simulationClient) {
				defer wg.Done()

				orderID, err := buyer.createOrder(bookID)
				if err != nil {
					// the other buyer may already have settled
					log.Debug().Err(err).Str("book_id", bookID).Msg("Create order failed")
					stats.Lock()
					stats.LostRace++
					stats.Unlock()
					return
				}

				capture, err := sim.provider.Capture(orderID)
				if err != nil {
					log.Error().Err(err).Str("order_id", orderID).Msg("Capture failed")
					return
				}

				status, err := buyer.verify(capture, bookID)
				stats.Lock()
				defer stats.Unlock()
				switch {
				case err != nil:
					log.Error().Err(err).Str("book_id", bookID).Msg("Verify failed")
					stats.Unexpected++
				case status == http.StatusCreated:
					stats.Sold[bookID]++
				case status == http.StatusNotFound:
					stats.LostRace++
				default:
					log.Error().Int("status", status).Str("book_id", bookID).Msg("Unexpected verify status")
					stats.Unexpected++
				}
			}(bookID, buyer)
		}
	}
	wg.Wait()

	// give the notification workers a moment to drain
	time.Sleep(500 * time.Millisecond)

	doubleSold := 0
	for _, n := range stats.Sold {
		if n > 1 {
			doubleSold++
		}
	}
	duration := time.Since(stats.StartTime)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("📚 MARKETPLACE SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Books Listed:     %d
Books Sold:       %d
Lost Races:       %d
Double Sold:      %d
Unexpected:       %d
Emails Logged:    %d
Duration:         %v
`, len(bookIDs), len(stats.Sold), stats.LostRace, doubleSold, stats.Unexpected,
		len(mailer.Emails()), duration.Round(time.Millisecond))

	printPerformanceStats(sim.stats)

	if doubleSold > 0 || len(stats.Sold) != len(bookIDs) {
		log.Error().
			Int("double_sold", doubleSold).
			Int("sold", len(stats.Sold)).
			Int("listed", len(bookIDs)).
			Msg("Simulation failed: every book must sell exactly once")
		os.Exit(1)
	}

	log.Info().Int("sold", len(stats.Sold)).Dur("duration", duration).Msg("Simulation completed")
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func printPerformanceStats(stats map[string]*routeStats) {
	fmt.Println("\n📊 API Performance Statistics")
	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "P95")
	fmt.Println(strings.Repeat("-", 90))

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := stats[name]
		min, max, mean, _, p95 := s.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s\n",
			s.name,
			s.totalCalls,
			s.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			p95.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 90))
}
