// main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
	"github.com/TrevorConnolly/ApologyAgent/internal/adapters"
	"github.com/TrevorConnolly/ApologyAgent/internal/analyzer"
	"github.com/TrevorConnolly/ApologyAgent/internal/assembler"
	"github.com/TrevorConnolly/ApologyAgent/internal/cache"
	"github.com/TrevorConnolly/ApologyAgent/internal/planner"
	"github.com/TrevorConnolly/ApologyAgent/internal/prompt"
	"github.com/TrevorConnolly/ApologyAgent/internal/recorder"
	"github.com/TrevorConnolly/ApologyAgent/internal/tools"
)

func main() {
	ctx := context.Background()

	// Ensure GEMINI_API_KEY environment variable is set
	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set.")
	}

	// Initialize Genkit with the Google AI plugin through the prompt registry.
	registry, err := prompt.NewRegistry(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{}),
		genkit.WithDefaultModel("googleai/gemini-2.0-flash"),
	)
	if err != nil {
		log.Fatal("Genkit initialization failed: ", err)
	}
	g := registry.Genkit()

	config := peaceagent.DefaultConfig()
	config.Version = "0.1.0"

	// Create dependencies
	memCache := cache.NewInMemoryCache(10 * time.Minute)
	analyzerFlow, err := analyzer.DefineFlow(registry)
	if err != nil {
		log.Fatal("Analyzer flow initialization failed: ", err)
	}
	analyzerAdapter := adapters.NewGenkitAnalyzerAdapter(analyzerFlow, memCache)

	gestureAdapters := tools.SetupAdapters()

	strategyPlanner, err := planner.NewStrategyPlanner(gestureAdapters,
		planner.WithAdapterTimeout(config.AdapterTimeout),
		planner.WithMaxConcurrentSearches(config.MaxConcurrentSearches),
		planner.WithMaxActions(config.MaxActions),
	)
	if err != nil {
		log.Fatal("Planner initialization failed: ", err)
	}

	responseAssembler := assembler.NewAssembler(gestureAdapters,
		assembler.WithAdapterTimeout(config.AdapterTimeout),
		assembler.WithMaxConcurrentResolutions(config.MaxConcurrentSearches),
	)

	options := []peaceagent.Option{
		peaceagent.WithConfig(config),
		peaceagent.WithAnalyzer(analyzerAdapter),
		peaceagent.WithPlanner(strategyPlanner),
		peaceagent.WithExecutor(responseAssembler),
		peaceagent.WithAdapters(gestureAdapters),
		peaceagent.WithCache(memCache),
	}

	if recordPath := os.Getenv("PLAN_RECORD_FILE"); recordPath != "" {
		planRecorder, err := recorder.NewFileRecorder(recordPath)
		if err != nil {
			log.Fatal("Recorder initialization failed: ", err)
		}
		defer planRecorder.Close()
		options = append(options, peaceagent.WithRecorder(planRecorder))
	}

	agent, err := peaceagent.New(ctx, options...)
	if err != nil {
		log.Fatal("PeaceAgent initialization failed: ", err)
	}
	defer agent.Close()

	// Expose the whole pipeline as a flow for local testing with the
	// genkit CLI.
	genkit.DefineFlow(g, "apologyPlanFlow",
		func(ctx context.Context, request *peaceagent.ApologyContext) (*peaceagent.ApologyResponse, error) {
			return agent.Plan(ctx, *request)
		},
	)

	log.Println("Genkit initialized successfully. Apology planning flows defined.")
	log.Println(`To run: genkit flow run apologyPlanFlow '{"situation": "...", "recipient_name": "...", "relationship_type": "friend", "severity": 5}'`)
	select {}
}
