package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/repository"
	"github.com/noah-isme/campus-scheduler-api/internal/seed"
	"github.com/noah-isme/campus-scheduler-api/internal/service"
	"github.com/noah-isme/campus-scheduler-api/migrations"
	"github.com/noah-isme/campus-scheduler-api/pkg/config"
	"github.com/noah-isme/campus-scheduler-api/pkg/database"
	"github.com/noah-isme/campus-scheduler-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "scheduler-cli",
	Short:        "Maintenance commands for the campus scheduler",
	Long:         "scheduler-cli applies the database schema, loads sample data and checks proposed schedules for conflicts.",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample departments, faculty, rooms and sections",
	RunE:  runSeed,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report sections that would collide with a proposed schedule",
	Example: `  scheduler-cli check --day "M TH" --time "11:00 AM - 12:00 PM" --faculty <id>
  scheduler-cli check --day T --time "9:00 AM - 10:30 AM" --room <id> --exclude <section id>`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("day", "", "Day tokens, e.g. \"M TH\"")
	checkCmd.Flags().String("time", "", "Time range, e.g. \"11:00 AM - 12:00 PM\"")
	checkCmd.Flags().String("faculty", "", "Faculty member id")
	checkCmd.Flags().String("room", "", "Room id")
	checkCmd.Flags().String("exclude", "", "Section id to ignore, used when editing")
	_ = checkCmd.MarkFlagRequired("day")
	_ = checkCmd.MarkFlagRequired("time")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type cliEnv struct {
	cfg    *config.Config
	db     *sqlx.DB
	logger *zap.Logger
}

func open() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising logger: %w", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	return &cliEnv{cfg: cfg, db: db, logger: logr}, nil
}

func (rt *cliEnv) close() {
	_ = rt.db.Close()
	_ = rt.logger.Sync()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := open()
	if err != nil {
		return err
	}
	defer rt.close()

	applied, err := migrations.Apply(cmd.Context(), rt.db, rt.logger)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s): %s\n", len(applied), strings.Join(applied, ", "))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	rt, err := open()
	if err != nil {
		return err
	}
	defer rt.close()

	validate := service.NewValidator(rt.cfg.Scheduling.StrictDays)
	sectionRepo := repository.NewSectionRepository(rt.db)
	departmentRepo := repository.NewDepartmentRepository(rt.db)
	facultyRepo := repository.NewFacultyRepository(rt.db)
	roomRepo := repository.NewRoomRepository(rt.db)

	conflicts := service.NewConflictService(sectionRepo, validate, nil, rt.logger)
	sections := service.NewSectionService(sectionRepo, repository.NewCourseRepository(rt.db), roomRepo, facultyRepo, conflicts, nil, validate, rt.logger,
		service.SectionServiceOptions{Locking: rt.cfg.Scheduling.Locking, StrictDays: rt.cfg.Scheduling.StrictDays})
	seeder := seed.New(
		service.NewDepartmentService(departmentRepo, validate, rt.logger),
		service.NewFacultyService(facultyRepo, departmentRepo, nil, validate, rt.logger),
		service.NewRoomService(roomRepo, nil, validate, rt.logger),
		sections,
		rt.logger,
	)

	summary, err := seeder.Run(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, summary)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := open()
	if err != nil {
		return err
	}
	defer rt.close()

	req := service.ConflictCheckRequest{}
	req.Day, _ = cmd.Flags().GetString("day")
	req.Time, _ = cmd.Flags().GetString("time")
	req.FacultyID, _ = cmd.Flags().GetString("faculty")
	req.RoomID, _ = cmd.Flags().GetString("room")
	req.ExcludeID, _ = cmd.Flags().GetString("exclude")
	if req.FacultyID == "" && req.RoomID == "" {
		return fmt.Errorf("at least one of --faculty or --room is required")
	}

	validate := service.NewValidator(rt.cfg.Scheduling.StrictDays)
	checker := service.NewConflictService(repository.NewSectionRepository(rt.db), validate, nil, rt.logger)
	result, err := checker.Check(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
