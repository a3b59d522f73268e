package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/cookies"
	"github.com/elsanchez/smart-publish/internal/platform"
	"github.com/elsanchez/smart-publish/internal/repository/sqlite"
	"github.com/elsanchez/smart-publish/internal/session"
	"github.com/elsanchez/smart-publish/internal/tui/accounts"
	"github.com/elsanchez/smart-publish/pkg/client"
)

const (
	version = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Crear cliente
	c := client.NewDefaultClient()

	switch os.Args[1] {
	case "post":
		handlePost(c, os.Args[2:])
	case "status":
		handleStatus(c, os.Args[2:])
	case "accounts":
		handleAccounts(c, os.Args[2:])
	case "validate":
		handleValidate(c, os.Args[2:])
	case "login":
		handleLogin(c, os.Args[2:])
	case "import":
		handleImport(c, os.Args[2:])
	case "tui":
		handleTUI()
	case "ping":
		handlePing(c)
	case "version":
		fmt.Printf("spub v%s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Smart Media Publisher (spub) v` + version + `

Usage: spub <command> [args]

Commands:
  post <videos...> [options]  Queue a batch upload
  status <batch-id>           Get batch status
  accounts [platform]         List registered accounts
  validate <platform> <id>    Validate an account session
  login <platform>            Interactive browser login
  import [options]            Import a cookie file or browser profile
  tui                         Open the account manager TUI
  ping                        Check daemon connectivity
  version                     Show version
  help                        Show this help

Post Options:
  --platform <name>     Target platform (douyin, tencent, kuaishou, tiktok)
  --account <id>        Account to publish with
  --title <text>        Video title
  --tags <a,b,c>        Comma-separated tags
  --mentions <a,b>      Comma-separated mentions
  --cover <path>        Cover image path
  --schedule            Publish on a daily schedule instead of immediately
  --per-day <n>         Videos per day when scheduling (default: 1)
  --times <9,18>        Daily publish hours when scheduling
  --start-days <n>      Extra days before the first slot (default: 0)
  --concurrency <n>     Parallel uploads within the batch

Import Options:
  --file <path>         Netscape cookie file to import
  --browser <name>      Extract cookies from a browser profile instead
  --platform <name>     Platform override (auto-detected if omitted)

Examples:
  spub post video1.mp4 video2.mp4 --platform douyin --account 12345 --title "Demo" --tags tech,golang
  spub post *.mp4 --platform tiktok --account me --title "Daily" --schedule --per-day 2 --times 9,18
  spub status 0f4c...
  spub accounts douyin
  spub validate tencent 12345 --force
  spub login kuaishou
  spub import --file cookies.txt
  spub import --browser chrome --platform douyin`)
}

func handlePost(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: At least one video file is required")
		printUsage()
		os.Exit(1)
	}

	// Parse flags
	postFlags := flag.NewFlagSet("post", flag.ExitOnError)
	platformName := postFlags.String("platform", "", "Target platform")
	accountID := postFlags.String("account", "", "Account to publish with")
	title := postFlags.String("title", "", "Video title")
	tags := postFlags.String("tags", "", "Comma-separated tags")
	mentions := postFlags.String("mentions", "", "Comma-separated mentions")
	cover := postFlags.String("cover", "", "Cover image path")
	scheduled := postFlags.Bool("schedule", false, "Publish on a daily schedule")
	perDay := postFlags.Int("per-day", 1, "Videos per day when scheduling")
	times := postFlags.String("times", "", "Daily publish hours (comma-separated)")
	startDays := postFlags.Int("start-days", 0, "Extra days before the first slot")
	concurrency := postFlags.Int("concurrency", 0, "Parallel uploads within the batch")

	// Separar manualmente los videos de los flags
	var videos []string
	flagStartIdx := -1
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			flagStartIdx = i
			break
		}
		videos = append(videos, arg)
	}

	if flagStartIdx >= 0 {
		postFlags.Parse(args[flagStartIdx:])
	}

	if len(videos) == 0 {
		fmt.Println("Error: At least one video file is required")
		os.Exit(1)
	}
	if *platformName == "" || *accountID == "" {
		fmt.Println("Error: --platform and --account are required")
		os.Exit(1)
	}
	if *title == "" {
		fmt.Println("Error: --title is required")
		os.Exit(1)
	}

	// Rutas absolutas para que el daemon las encuentre
	for i, v := range videos {
		abs, err := filepath.Abs(v)
		if err != nil {
			fmt.Printf("Error: Invalid path %s: %v\n", v, err)
			os.Exit(1)
		}
		videos[i] = abs
	}

	payload := &client.PostPayload{
		Platform:       *platformName,
		AccountID:      *accountID,
		Title:          *title,
		Tags:           splitList(*tags),
		Mentions:       splitList(*mentions),
		Videos:         videos,
		CoverPath:      *cover,
		MaxConcurrency: *concurrency,
	}

	if *scheduled {
		payload.PublishType = 1
		payload.ItemsPerDay = *perDay
		payload.StartDays = *startDays
		payload.DailyTimes = splitHours(*times)
	}

	batchID, jobs, err := c.PostBatch(payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Batch queued with ID: %s\n", batchID)
	fmt.Printf("  Platform: %s\n", *platformName)
	fmt.Printf("  Account: %s\n", *accountID)
	fmt.Printf("  Videos: %d\n", len(jobs))
	if *scheduled {
		fmt.Printf("  Schedule: %d per day, starting in %d day(s)\n", *perDay, *startDays+1)
	} else {
		fmt.Println("  Schedule: immediate")
	}
}

func handleStatus(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Batch ID is required")
		fmt.Println("Usage: spub status <batch-id>")
		os.Exit(1)
	}

	status, err := c.GetBatchStatus(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if status.Running {
		fmt.Println("Status: running")
		return
	}

	fmt.Println("Status: finished")
	if len(status.Result) > 0 {
		fmt.Println(string(status.Result))
	}
}

func handleAccounts(c *client.Client, args []string) {
	platformFilter := ""
	if len(args) > 0 {
		platformFilter = args[0]
	}

	accts, err := c.ListAccounts(platformFilter)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(accts) == 0 {
		fmt.Println("No accounts found")
		return
	}

	fmt.Printf("Accounts (%d):\n\n", len(accts))
	for _, acc := range accts {
		fmt.Printf("%s/%s\n", acc.Platform, acc.AccountID)
		if acc.Nickname != "" {
			fmt.Printf("  Nickname: %s\n", acc.Nickname)
		}
		fmt.Printf("  Status: %s\n", acc.Status)
		if acc.FollowerCount > 0 {
			fmt.Printf("  Followers: %d\n", acc.FollowerCount)
		}
		if !acc.LastUpdate.IsZero() {
			fmt.Printf("  Updated: %s\n", acc.LastUpdate.Format(time.RFC3339))
		}
		fmt.Println()
	}
}

func handleValidate(c *client.Client, args []string) {
	if len(args) < 2 {
		fmt.Println("Error: Platform and account ID are required")
		fmt.Println("Usage: spub validate <platform> <account-id> [--force]")
		os.Exit(1)
	}

	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	force := validateFlags.Bool("force", false, "Probe the platform instead of using the cached verdict")
	if len(args) > 2 {
		validateFlags.Parse(args[2:])
	}

	valid, err := c.ValidateAccount(args[0], args[1], *force)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if valid {
		fmt.Printf("✓ Session for %s/%s is valid\n", args[0], args[1])
	} else {
		fmt.Printf("✗ Session for %s/%s expired, login required\n", args[0], args[1])
		os.Exit(1)
	}
}

func handleLogin(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Platform is required")
		fmt.Println("Usage: spub login <platform>")
		os.Exit(1)
	}

	fmt.Printf("Opening %s login page, complete the login in the browser window...\n", args[0])

	acc, err := c.Login(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as %s/%s", acc.Platform, acc.AccountID)
	if acc.Nickname != "" {
		fmt.Printf(" (%s)", acc.Nickname)
	}
	fmt.Println()
}

func handleImport(c *client.Client, args []string) {
	importFlags := flag.NewFlagSet("import", flag.ExitOnError)
	filePath := importFlags.String("file", "", "Netscape cookie file to import")
	browser := importFlags.String("browser", "", "Extract cookies from a browser profile")
	platformName := importFlags.String("platform", "", "Platform override")
	importFlags.Parse(args)

	if *filePath == "" && *browser == "" {
		fmt.Println("Error: --file or --browser is required")
		os.Exit(1)
	}

	if *filePath != "" {
		abs, err := filepath.Abs(*filePath)
		if err != nil {
			fmt.Printf("Error: Invalid path %s: %v\n", *filePath, err)
			os.Exit(1)
		}
		*filePath = abs
	}

	acc, err := c.ImportCookies(*filePath, *browser, *platformName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Imported %s/%s", acc.Platform, acc.AccountID)
	if acc.Nickname != "" {
		fmt.Printf(" (%s)", acc.Nickname)
	}
	fmt.Println()
}

// handleTUI abre el gestor de cuentas directamente sobre la base local,
// sin pasar por el daemon
func handleTUI() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}
	dataDir := filepath.Join(homeDir, ".local", "share", "smart-publish")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := sqlite.NewDatabase(dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	engine := automation.NewCommandDriver("browser-agent")
	registry := platform.NewRegistry()
	sessions := session.NewManager(engine, registry, session.NewMemoryCache(), db.AccountRepo, db.CookieRepo, session.DefaultConfig(dataDir))
	validator := session.NewValidator(engine, registry, 10*time.Second)
	importer := cookies.NewCookieImporter(validator, sessions, db.AccountRepo)

	model := accounts.NewModel(db.AccountRepo, sessions, importer)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}

func handlePing(c *client.Client) {
	if err := c.Ping(); err != nil {
		fmt.Printf("Error: daemon not reachable: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Daemon is running")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitHours(s string) []int {
	if s == "" {
		return nil
	}
	var hours []int
	for _, p := range strings.Split(s, ",") {
		var h int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &h); err == nil {
			hours = append(hours, h)
		}
	}
	return hours
}
