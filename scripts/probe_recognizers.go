//go:build ignore

// Probe script to exercise the full detection pipeline on a sample
// conversation.
// Run with: go run scripts/probe_recognizers.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/profile"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              DETECTION PIPELINE PROBE                             ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")

	// 1. Load the embedded rule set
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 1: Loading Embedded Rules                                  │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
	rules, err := recognition.NewRulesRecognizer()
	if err != nil {
		log.Fatalf("  ✗ Rules failed to load: %v", err)
	}
	fmt.Printf("  ✓ Rules loaded, %d compiled patterns\n", rules.RuleCount())

	// 2. Build the adapter
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 2: Building the Recognition Adapter                        │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
	adapter := recognition.New(recognition.Config{}, rules)
	fmt.Printf("  ✓ Adapter ready, threshold %.2f\n", recognition.DefaultThreshold)

	// 3. Run a sample conversation through Detect
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 3: Detecting Over a Sample Conversation                    │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
	messages := []string{
		"Hi, I'm reaching out about the reunion on June 14th, 2025.",
		"You can email me at dana.reyes@example.com or call 518-555-0171.",
		"I still live in Albany, about ten minutes from the old school.",
		"Please don't bill the card ending 4111 1111 1111 1111 again.",
		"My SSN is 078-05-1120 if you need it for the form.",
	}

	var all []datatypes.Entity
	start := time.Now()
	for i, text := range messages {
		entities, err := adapter.Detect(ctx, text, "en", i)
		if err != nil {
			log.Fatalf("  ✗ Detect failed on message %d: %v", i, err)
		}
		fmt.Printf("  Message %d: %d entities\n", i, len(entities))
		for _, e := range entities {
			fmt.Printf("    - %s %q score=%.2f span=[%d,%d)\n",
				e.Type, e.Text, e.Confidence, e.Start, e.End)
		}
		all = append(all, entities...)
	}
	fmt.Printf("  ✓ Total duration: %v\n", time.Since(start))

	// 4. Build the disclosure profile
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 4: Building the Disclosure Profile                         │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
	p := profile.Build(all)
	fmt.Printf("  ✓ Total entities: %d\n", p.TotalEntities)
	fmt.Printf("  ✓ Identifiability score: %.1f/100\n", p.IdentifiabilityScore)
	for _, line := range p.Summary {
		fmt.Printf("    - %s\n", line)
	}

	// 5. Fingerprint and inference context
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 5: Fingerprint and Inference Context                       │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")
	fmt.Printf("  Fingerprint: %s\n", profile.Fingerprint(p))
	fmt.Println("  Inference context:")
	fmt.Println(profile.InferenceContext(p))

	fmt.Println("\n╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              PROBE COMPLETE                                       ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
}
