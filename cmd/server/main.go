package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ci-orchestrator/api/rest/routes"
	"ci-orchestrator/config"
	"ci-orchestrator/core/agents"
	"ci-orchestrator/core/monitoring"
	"ci-orchestrator/core/repository"
	"ci-orchestrator/core/scheduler"
	"ci-orchestrator/core/spec"
	"ci-orchestrator/providers/aws"
	"ci-orchestrator/storage"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Database connected successfully")

	ctx := context.Background()

	// Initialize repositories
	buildRepo := repository.NewBuildRepository(db)
	modRepo := repository.NewModificationRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	// Initialize log storage
	logs := storage.NewLogManager(artifactRepo, cfg.ArtifactRoot)

	// Initialize scheduler
	sched := scheduler.NewScheduler(buildRepo, modRepo, logs, cfg.PollInterval)

	// Load project definitions
	data, err := os.ReadFile(cfg.ProjectsFile)
	if err != nil {
		log.Fatalf("Failed to read projects file %s: %v", cfg.ProjectsFile, err)
	}
	projectsSpec, err := spec.ParseProjectsSpec(string(data))
	if err != nil {
		log.Fatalf("Failed to parse projects file: %v", err)
	}
	for _, p := range projectsSpec.Projects {
		project, err := spec.BuildProject(p)
		if err != nil {
			log.Fatalf("Failed to build project %s: %v", p.Name, err)
		}
		sched.AddProject(project)
		if project.Watcher != nil {
			go project.Watcher.Start(ctx)
		}
		log.Printf("Registered project %s", project.Name)
	}

	go sched.Start(ctx)
	defer sched.Stop()

	// Initialize build monitor
	monitor := monitoring.NewBuildMonitor(buildRepo, sched)
	go monitor.Start(ctx)

	// Initialize EC2 build agent pool when an AMI is configured
	if cfg.AgentAMI != "" {
		awsClient, err := aws.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			log.Printf("AWS client unavailable, agent pool disabled: %v", err)
		} else {
			pool := agents.NewAgentPool(awsClient, cfg.AgentAMI, cfg.AgentInstanceType, cfg.AgentUseSpot, cfg.AgentPoolMaxSize)
			autoScaler := scheduler.NewAutoScaler(pool, sched, cfg.ScaleUpThreshold, cfg.ScaleDownIdleTime)
			go autoScaler.Start(ctx)
		}
	}

	// Initialize metrics exporter
	exporter := monitoring.NewMetricsExporter(buildRepo, sched)

	// Setup routes with database and scheduler
	r := mux.NewRouter()
	routes.SetupRoutes(r, db, sched, exporter, monitor)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
