package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aisha/internal/app"
	"aisha/internal/config"
	"aisha/internal/dto"
	"aisha/internal/logger"
)

var (
	cfg *config.Config

	// Overrides for the environment configuration
	cameraIndex   int
	viewerPort    int
	modelPath     string
	modelFormat   string
	classNames    string
	confidence    float64
	speechEngine  string
	triggerWord   string
	vocabulary    string
	relayDryRun   bool
	imuPort       string
	notifications bool

	// events
	eventFilter  dto.EventFilter
	eventsSince  time.Duration
	eventsJSON   bool
	eventsClear  bool
	eventsImport bool
)

var rootCmd = &cobra.Command{
	Use:   "aisha",
	Short: "Aisha - webcam detector, Kazakh voice assistant and pilot HUD",
	Long: `Aisha bundles three programs:

  detect  webcam object detection with a YOLO or SSD model
  assist  voice-trigger assistant answering Kazakh commands
  hud     relay control by voice and a synthetic pilot HUD

Configuration comes from the environment and an optional .env file.
Flags override the matching variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		applyFlags(cmd, cfg)
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Box detected aircraft in the webcam feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.RunDetect(ctx)
		})
	},
}

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Run the voice-trigger command assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.RunAssist(ctx)
		})
	},
}

var hudCmd = &cobra.Command{
	Use:   "hud",
	Short: "Switch the relay by voice and draw the pilot HUD",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.RunHUD(ctx)
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print recorded commands and detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if eventsClear {
				return a.ClearEvents(cmd.OutOrStdout())
			}
			if eventsImport {
				return a.ImportEvents(cmd.OutOrStdout())
			}
			filter := eventFilter
			if eventsSince > 0 {
				filter.Since = time.Now().Add(-eventsSince)
			}
			return a.PrintEvents(cmd.OutOrStdout(), filter, eventsJSON)
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&cameraIndex, "camera", 0, "camera index (CAMERA_INDEX)")
	pf.IntVar(&viewerPort, "viewer-port", 0, "serve the live web view on this port, 0 disables it (VIEWER_PORT)")
	pf.BoolVar(&notifications, "notify", false, "show desktop notifications (NOTIFICATIONS)")

	detectCmd.Flags().StringVar(&modelPath, "model", "", "ONNX or frozen graph model (MODEL_PATH)")
	detectCmd.Flags().StringVar(&modelFormat, "format", "", "model format: yolo or ssd (MODEL_FORMAT)")
	detectCmd.Flags().StringVar(&classNames, "names", "", "class names file (CLASS_NAMES_PATH)")
	detectCmd.Flags().Float64Var(&confidence, "conf", 0, "minimum confidence (CONFIDENCE_THRESHOLD)")

	assistCmd.Flags().StringVar(&speechEngine, "engine", "", "speech engine: vosk or cloud (SPEECH_ENGINE)")
	assistCmd.Flags().StringVar(&triggerWord, "trigger", "", "skip naming and use this trigger word (TRIGGER_WORD)")
	assistCmd.Flags().StringVar(&vocabulary, "vocabulary", "", "command vocabulary YAML (VOCABULARY_PATH)")

	hudCmd.Flags().BoolVar(&relayDryRun, "dry-run", false, "log relay switches instead of driving GPIO (RELAY_DRY_RUN)")
	hudCmd.Flags().StringVar(&imuPort, "imu", "", "ESP32 IMU serial port (IMU_PORT)")
	hudCmd.Flags().StringVar(&vocabulary, "vocabulary", "", "relay vocabulary YAML (RELAY_VOCABULARY_PATH)")

	ef := eventsCmd.Flags()
	ef.StringVar(&eventFilter.Session, "session", "", "only this session")
	ef.StringVar(&eventFilter.Camera, "camera-name", "", "only snapshots from this camera")
	ef.StringVar(&eventFilter.Label, "label", "", "only snapshots with this label")
	ef.StringVar(&eventFilter.Source, "source", "", "only commands from assist, hud or web")
	ef.StringVar(&eventFilter.Action, "action", "", "only commands with this action")
	ef.IntVar(&eventFilter.Limit, "limit", 20, "maximum rows per list")
	ef.DurationVar(&eventsSince, "since", 0, "only events newer than this, e.g. 2h")
	ef.BoolVar(&eventsJSON, "json", false, "print JSON")
	ef.BoolVar(&eventsClear, "clear", false, "delete all events and snapshot files")
	ef.BoolVar(&eventsImport, "import", false, "record snapshot files in IMAGE_DIR missing from the database")
	eventsCmd.MarkFlagsMutuallyExclusive("clear", "import")

	rootCmd.AddCommand(detectCmd, assistCmd, hudCmd, eventsCmd)
}

// applyFlags copies explicitly set flags over the environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("camera") {
		cfg.CameraIndex = cameraIndex
	}
	if flags.Changed("viewer-port") {
		cfg.ViewerPort = viewerPort
	}
	if flags.Changed("notify") {
		cfg.Notifications = notifications
	}
	if flags.Changed("model") {
		cfg.ModelPath = modelPath
	}
	if flags.Changed("format") {
		cfg.ModelFormat = modelFormat
	}
	if flags.Changed("names") {
		cfg.ClassNamesPath = classNames
	}
	if flags.Changed("conf") {
		cfg.ConfidenceThreshold = confidence
	}
	if flags.Changed("engine") {
		cfg.SpeechEngine = speechEngine
	}
	if flags.Changed("trigger") {
		cfg.TriggerWord = strings.ToLower(strings.TrimSpace(triggerWord))
	}
	if flags.Changed("vocabulary") {
		if cmd.Name() == "hud" {
			cfg.RelayVocabularyPath = vocabulary
		} else {
			cfg.VocabularyPath = vocabulary
		}
	}
	if flags.Changed("dry-run") {
		cfg.RelayDryRun = relayDryRun
	}
	if flags.Changed("imu") {
		cfg.IMUPort = imuPort
	}
}

// withApp runs fn with a logger, the event store and a context cancelled on SIGINT/SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	log := logger.NewLogger(cfg)
	defer log.Close()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, a); err != nil {
		log.Error("Command failed: %v", err)
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
