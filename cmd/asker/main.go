// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/core"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	engine, err := retrievit.NewEngine("./satdb")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	if err := engine.LoadSnapshot(ctx); err != nil {
		panic(err)
	}

	searcher, err := engine.NewSearcher()
	if err != nil {
		panic(err)
	}

	question := "What instruments does INSAT-3D carry?"
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	result, err := searcher.Answer(ctx, question)
	if err != nil {
		panic(err)
	}

	switch result.Outcome {
	case core.OutcomeDirectAnswer:
		fmt.Printf("Answer: %s\n", result.Answer)
	case core.OutcomeNoEvidence:
		fmt.Println("No evidence found")
	default:
		fmt.Printf("Found %d pieces of evidence\n", len(result.Evidence))
		for i, hit := range result.Evidence {
			fmt.Printf("%d: [%s] '%s' [%0.3f]\n", i, hit.Kind, preview(hit), hit.FusionScore)
		}
	}
}

func preview(hit *core.Evidence) string {
	switch hit.Kind {
	case core.EvidenceDocumentSnippet:
		return hit.Chunk.Text
	case core.EvidenceFaqHit:
		return hit.FAQ.Question
	default:
		return hit.Provenance
	}
}
