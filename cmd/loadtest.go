package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL          string
	NumStudents      int
	NumOfferings     int
	ConcurrentUsers  int
	RequestsPerUser  int
	OfferingCapacity int
	StudentsFile     string
}

// SelectionRequest represents the API request
type SelectionRequest struct {
	StudentID   uuid.UUID `json:"student_id"`
	OfferingIDs []int64   `json:"offering_ids"`
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	SuccessfulReqs    int
	RejectedReqs      int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int
}

// LoadTester drives concurrent selection submissions against the API
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	students  []uuid.UUID
	offerings []int64
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		results: LoadTestResult{
			ErrorsByType: make(map[string]int),
		},
	}
}

// Initialize sets up test data. Student ids come from a file of seeded ids
// when provided; generated ids will be rejected by the API, which still
// exercises the rejection path under load.
func (lt *LoadTester) Initialize() error {
	fmt.Println("Initializing load test data...")

	if lt.config.StudentsFile != "" {
		file, err := os.Open(lt.config.StudentsFile)
		if err != nil {
			return fmt.Errorf("failed to open students file: %w", err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			id, err := uuid.Parse(line)
			if err != nil {
				return fmt.Errorf("invalid student id %q: %w", line, err)
			}
			lt.students = append(lt.students, id)
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	} else {
		for i := 0; i < lt.config.NumStudents; i++ {
			lt.students = append(lt.students, uuid.New())
		}
	}

	for i := 1; i <= lt.config.NumOfferings; i++ {
		lt.offerings = append(lt.offerings, int64(i))
	}

	fmt.Printf("Using %d students and %d offerings\n", len(lt.students), len(lt.offerings))
	return nil
}

// RunLoadTest executes the load test
func (lt *LoadTester) RunLoadTest() {
	fmt.Printf("Starting load test with %d concurrent users...\n", lt.config.ConcurrentUsers)

	lt.startTime = time.Now()
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, lt.config.ConcurrentUsers)
	totalRequests := lt.config.ConcurrentUsers * lt.config.RequestsPerUser

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)

		go func(requestID int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lt.simulateSubmission(requestID)
		}(i)

		time.Sleep(10 * time.Millisecond)
	}

	wg.Wait()

	lt.calculateMetrics()
	lt.printResults()
}

// simulateSubmission submits one candidate set for a pseudo-random student
func (lt *LoadTester) simulateSubmission(requestID int) {
	startTime := time.Now()

	studentID := lt.students[requestID%len(lt.students)]

	// Each submission picks 1-3 offerings, shifting through the pool so
	// neighbouring requests contend for the same seats.
	numOfferings := 1 + (requestID % 3)
	offeringIDs := make([]int64, numOfferings)
	for i := 0; i < numOfferings; i++ {
		offeringIDs[i] = lt.offerings[(requestID+i)%len(lt.offerings)]
	}

	reqBody := SelectionRequest{
		StudentID:   studentID,
		OfferingIDs: offeringIDs,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		lt.recordError("json_marshal")
		return
	}

	url := fmt.Sprintf("%s/api/v1/selections", lt.config.BaseURL)
	resp, err := lt.client.Post(url, "application/json", bytes.NewBuffer(jsonData))

	responseTime := time.Since(startTime)

	if err != nil {
		lt.recordError("http_request")
		return
	}
	defer resp.Body.Close()

	lt.recordResponse(resp.StatusCode, responseTime)
}

// recordResponse records the response metrics
func (lt *LoadTester) recordResponse(statusCode int, responseTime time.Duration) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}

	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch {
	case statusCode >= 200 && statusCode < 300:
		lt.results.SuccessfulReqs++
	case statusCode == 409: // Conflict - clash, duplicate type, or full
		lt.results.RejectedReqs++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

// recordError records an error that occurred during testing
func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

// calculateMetrics calculates final test metrics
func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
}

// printResults displays the load test results
func (lt *LoadTester) printResults() {
	fmt.Println("\n" + strings.Repeat("=", 80))

	fmt.Printf("Test Configuration:\n")
	fmt.Printf("  - Concurrent Users: %d\n", lt.config.ConcurrentUsers)
	fmt.Printf("  - Requests per User: %d\n", lt.config.RequestsPerUser)
	fmt.Printf("  - Total Students: %d\n", len(lt.students))
	fmt.Printf("  - Total Offerings: %d\n", len(lt.offerings))
	fmt.Printf("  - Offering Capacity: %d seats each\n", lt.config.OfferingCapacity)

	fmt.Printf("\nOverall Performance:\n")
	fmt.Printf("  - Total Requests: %d\n", lt.results.TotalRequests)
	fmt.Printf("  - Successful: %d (%.2f%%)\n",
		lt.results.SuccessfulReqs,
		float64(lt.results.SuccessfulReqs)/float64(lt.results.TotalRequests)*100)
	fmt.Printf("  - Rejected (conflict): %d (%.2f%%)\n",
		lt.results.RejectedReqs,
		float64(lt.results.RejectedReqs)/float64(lt.results.TotalRequests)*100)
	fmt.Printf("  - Failed: %d (%.2f%%)\n",
		lt.results.FailedReqs,
		float64(lt.results.FailedReqs)/float64(lt.results.TotalRequests)*100)

	fmt.Printf("\nResponse Time Metrics:\n")
	fmt.Printf("  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Printf("  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Printf("  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)

	fmt.Printf("\nThroughput:\n")
	fmt.Printf("  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Printf("\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Printf("  - %s: %d\n", errorType, count)
		}
	}

	lt.analyzeContention()
}

// analyzeContention reports the seat demand against the available supply
func (lt *LoadTester) analyzeContention() {
	totalSeats := lt.config.NumOfferings * lt.config.OfferingCapacity
	totalDemand := lt.results.TotalRequests
	contentionRatio := float64(totalDemand) / float64(totalSeats)

	fmt.Printf("\nContention Analysis:\n")
	fmt.Printf("  - Total Available Seats: %d\n", totalSeats)
	fmt.Printf("  - Total Submission Attempts: %d\n", totalDemand)
	fmt.Printf("  - Contention Ratio: %.2f:1\n", contentionRatio)

	if contentionRatio > 5 {
		fmt.Printf("  Very high contention - expect many capacity rejections\n")
	} else if contentionRatio > 2 {
		fmt.Printf("  High contention - some capacity rejections expected\n")
	} else {
		fmt.Printf("  Reasonable contention level\n")
	}
}

// RunConcurrencyStressTest tests system under extreme concurrent load
func (lt *LoadTester) RunConcurrencyStressTest() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CONCURRENCY STRESS TEST")
	fmt.Println(strings.Repeat("=", 80))

	concurrencyLevels := []int{10, 50, 100, 200, 500}

	for _, concurrency := range concurrencyLevels {
		fmt.Printf("\nTesting with %d concurrent users...\n", concurrency)

		originalConfig := lt.config
		lt.config.ConcurrentUsers = concurrency
		lt.config.RequestsPerUser = 5

		lt.results = LoadTestResult{
			ErrorsByType: make(map[string]int),
		}

		lt.RunLoadTest()

		time.Sleep(2 * time.Second)

		lt.config = originalConfig
	}
}

// loadtestCmd represents the loadtest command
var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run load tests against the Enrollment Platform API",
	Long: `Run comprehensive load tests against the Enrollment Platform API.
This includes:
- Concurrent submission simulation
- Selection commit performance testing
- Seat contention analysis
- Throughput and response time metrics
- Optional stress testing with increasing concurrency levels`,
	Run: func(cmd *cobra.Command, args []string) {
		runLoadTest()
	},
}

var (
	baseURL          string
	numStudents      int
	numOfferings     int
	concurrentUsers  int
	requestsPerUser  int
	offeringCapacity int
	studentsFile     string
	stressTest       bool
)

func init() {
	rootCmd.AddCommand(loadtestCmd)

	loadtestCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the enrollment API")
	loadtestCmd.Flags().IntVar(&numStudents, "students", 1000, "Number of students to simulate")
	loadtestCmd.Flags().IntVar(&numOfferings, "offerings", 50, "Number of class offerings")
	loadtestCmd.Flags().IntVar(&concurrentUsers, "concurrent", 100, "Number of concurrent users")
	loadtestCmd.Flags().IntVar(&requestsPerUser, "requests", 10, "Number of requests per user")
	loadtestCmd.Flags().IntVar(&offeringCapacity, "capacity", 30, "Capacity per offering")
	loadtestCmd.Flags().StringVar(&studentsFile, "students-file", "", "File with one seeded student UUID per line")
	loadtestCmd.Flags().BoolVar(&stressTest, "stress", false, "Run concurrency stress test")
}

func runLoadTest() {
	config := LoadTestConfig{
		BaseURL:          baseURL,
		NumStudents:      numStudents,
		NumOfferings:     numOfferings,
		ConcurrentUsers:  concurrentUsers,
		RequestsPerUser:  requestsPerUser,
		OfferingCapacity: offeringCapacity,
		StudentsFile:     studentsFile,
	}

	loadTester := NewLoadTester(config)
	if err := loadTester.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize load test: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Enrollment Platform Load Test")
	fmt.Println("=============================")

	loadTester.RunLoadTest()

	if stressTest {
		loadTester.RunConcurrencyStressTest()
	}
}
