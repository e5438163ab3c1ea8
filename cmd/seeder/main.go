package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
)

// The built-in corpus is a small meteorological satellite handbook:
// curated mentions and triples for the knowledge graph, one-sentence
// document chunks for vector retrieval, and FAQ pairs for direct answers.

var seedMentions = []core.RawMention{
	{Name: "INSAT-3D", Type: "satellite", Source: "handbook"},
	{Name: "INSAT 3D", Type: "satellite", Source: "bulletin"},
	{Name: "INSAT-3DR", Type: "satellite", Source: "handbook"},
	{Name: "Kalpana-1", Type: "satellite", Source: "handbook"},
	{Name: "Megha-Tropiques", Type: "satellite", Source: "handbook"},
	{Name: "Oceansat-2", Type: "satellite", Source: "handbook"},
	{Name: "SCATSAT-1", Type: "satellite", Source: "handbook"},
	{Name: "ISRO", Type: "agency", Source: "handbook"},
	{Name: "India Meteorological Department", Type: "agency", Source: "handbook"},
	{Name: "Imager", Type: "instrument", Source: "handbook"},
	{Name: "Sounder", Type: "instrument", Source: "handbook"},
	{Name: "SAPHIR", Type: "instrument", Source: "handbook"},
	{Name: "ScaRaB", Type: "instrument", Source: "handbook"},
	{Name: "Ocean Colour Monitor", Type: "instrument", Source: "handbook"},
	{Name: "Scatterometer", Type: "instrument", Source: "handbook"},
	{Name: "Data Relay Transponder", Type: "instrument", Source: "handbook"},
	{Name: "Geostationary Orbit", Type: "orbit", Source: "handbook"},
	{Name: "Sun-synchronous Orbit", Type: "orbit", Source: "handbook"},
	{Name: "Cloud Imagery", Type: "data_product", Source: "handbook"},
	{Name: "Sea Surface Temperature", Type: "measurement", Source: "handbook"},
	{Name: "Atmospheric Temperature Profile", Type: "measurement", Source: "handbook"},
	{Name: "Ocean Surface Winds", Type: "measurement", Source: "handbook"},
	{Name: "Cyclone Tracking", Type: "application", Source: "handbook"},
	{Name: "Tropical Water Cycle", Type: "phenomenon", Source: "handbook"},
}

var seedTriples = []core.RawTriple{
	{Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "Geostationary Orbit", Confidence: 0.98, Source: "handbook"},
	{Subject: "INSAT-3DR", Predicate: "hasOrbit", Object: "Geostationary Orbit", Confidence: 0.97, Source: "handbook"},
	{Subject: "Kalpana-1", Predicate: "hasOrbit", Object: "Geostationary Orbit", Confidence: 0.95, Source: "handbook"},
	{Subject: "Oceansat-2", Predicate: "hasOrbit", Object: "Sun-synchronous Orbit", Confidence: 0.94, Source: "handbook"},
	{Subject: "INSAT-3D", Predicate: "carries", Object: "Imager", Confidence: 0.96, Source: "handbook"},
	{Subject: "INSAT-3D", Predicate: "carries", Object: "Sounder", Confidence: 0.96, Source: "handbook"},
	{Subject: "INSAT-3D", Predicate: "carries", Object: "Data Relay Transponder", Confidence: 0.9, Source: "handbook"},
	{Subject: "INSAT 3D", Predicate: "supports", Object: "Cyclone Tracking", Confidence: 0.88, Source: "bulletin"},
	{Subject: "INSAT-3DR", Predicate: "carries", Object: "Imager", Confidence: 0.95, Source: "handbook"},
	{Subject: "INSAT-3DR", Predicate: "carries", Object: "Sounder", Confidence: 0.95, Source: "handbook"},
	{Subject: "Megha-Tropiques", Predicate: "carries", Object: "SAPHIR", Confidence: 0.93, Source: "handbook"},
	{Subject: "Megha-Tropiques", Predicate: "carries", Object: "ScaRaB", Confidence: 0.92, Source: "handbook"},
	{Subject: "Megha-Tropiques", Predicate: "studies", Object: "Tropical Water Cycle", Confidence: 0.9, Source: "handbook"},
	{Subject: "Oceansat-2", Predicate: "carries", Object: "Ocean Colour Monitor", Confidence: 0.93, Source: "handbook"},
	{Subject: "SCATSAT-1", Predicate: "carries", Object: "Scatterometer", Confidence: 0.94, Source: "handbook"},
	{Subject: "ISRO", Predicate: "operates", Object: "INSAT-3D", Confidence: 0.97, Source: "handbook"},
	{Subject: "ISRO", Predicate: "operates", Object: "INSAT-3DR", Confidence: 0.96, Source: "handbook"},
	{Subject: "ISRO", Predicate: "operates", Object: "Kalpana-1", Confidence: 0.95, Source: "handbook"},
	{Subject: "ISRO", Predicate: "operates", Object: "SCATSAT-1", Confidence: 0.94, Source: "handbook"},
	{Subject: "Imager", Predicate: "produces", Object: "Cloud Imagery", Confidence: 0.92, Source: "handbook"},
	{Subject: "Imager", Predicate: "measures", Object: "Sea Surface Temperature", Confidence: 0.9, Source: "handbook"},
	{Subject: "Sounder", Predicate: "measures", Object: "Atmospheric Temperature Profile", Confidence: 0.91, Source: "handbook"},
	{Subject: "Scatterometer", Predicate: "measures", Object: "Ocean Surface Winds", Confidence: 0.92, Source: "handbook"},
	{Subject: "India Meteorological Department", Predicate: "uses", Object: "Cloud Imagery", Confidence: 0.86, Source: "handbook"},
	{Subject: "India Meteorological Department", Predicate: "uses", Object: "Cyclone Tracking", Confidence: 0.84, Source: "handbook"},
}

var seedDocuments = []string{
	"INSAT-3D is an advanced meteorological satellite launched into geostationary orbit in July 2013.",
	"The INSAT-3D imager captures images of the full earth disc in six spectral channels.",
	"INSAT-3D completes a full earth disc scan every 26 minutes in normal mode.",
	"The INSAT-3D sounder retrieves vertical profiles of temperature and humidity in nineteen channels.",
	"INSAT-3DR was launched in September 2016 as a follow-on to INSAT-3D with staggered scan timing.",
	"Operating INSAT-3D and INSAT-3DR together halves the effective revisit time over the Indian region.",
	"The imager's thermal infrared channels resolve cloud top temperatures to within one kelvin.",
	"Split-window infrared channels allow sea surface temperature retrieval under clear skies.",
	"The visible channel of the imager has a ground resolution of one kilometre at nadir.",
	"The shortwave infrared channel helps discriminate snow cover from cloud.",
	"The water vapour channel senses mid-tropospheric humidity even in cloud-free conditions.",
	"Sounder radiances are assimilated into numerical weather prediction models twice daily.",
	"Atmospheric motion vectors are derived by tracking cloud features across successive images.",
	"Outgoing longwave radiation is estimated from the thermal channels and archived daily.",
	"Kalpana-1 carried a very high resolution radiometer and served as India's dedicated weather satellite from 2002.",
	"Kalpana-1 was retired in 2017 after fifteen years of service, far beyond its design life.",
	"Megha-Tropiques is a joint Indo-French mission studying the water cycle in the tropical atmosphere.",
	"SAPHIR profiles tropospheric humidity in six channels near the 183 GHz water vapour line.",
	"ScaRaB measures the radiative budget at the top of the atmosphere.",
	"The low inclination orbit of Megha-Tropiques yields frequent revisits over the tropics.",
	"Oceansat-2 carries the Ocean Colour Monitor for chlorophyll mapping in coastal waters.",
	"The Oceansat-2 scatterometer provided ocean surface wind vectors until its scanning mechanism failed.",
	"SCATSAT-1 was built quickly to restore scatterometer wind coverage after Oceansat-2 degraded.",
	"Scatterometer winds feed cyclone genesis monitoring over the north Indian Ocean.",
	"The data relay transponder on INSAT-3D collects observations from remote automatic weather stations.",
	"A dedicated search and rescue transponder on INSAT-3D relays distress beacons to ground control.",
	"The India Meteorological Department issues cyclone warnings using imagery from geostationary satellites.",
	"Cyclone intensity is estimated from satellite imagery using the Dvorak technique.",
	"Half-hourly imaging during cyclone emergencies is achieved by restricting scans to a sector.",
	"Rapid scan imagery proved decisive during cyclone Phailin's landfall in October 2013.",
	"Fog detection over the Indo-Gangetic plain combines the visible and shortwave infrared channels at dawn.",
	"Heavy rainfall estimates from satellite are calibrated against rain gauge networks.",
	"The hydro-estimator technique converts cloud top temperature into rainfall rate.",
	"Land surface temperature retrieval needs emissivity corrections over arid terrain.",
	"Snow cover mapping of Himalayan catchments supports seasonal runoff forecasting.",
	"Ground stations in Hassan and Bhopal handle spacecraft operations for the INSAT fleet.",
	"The meteorological data processing system at Delhi generates over forty geophysical products.",
	"Satellite derived winds improved monsoon onset forecasts in recent seasons.",
	"Geostationary satellites hover over one longitude, trading resolution for constant coverage.",
	"Polar orbiting satellites see every point on earth twice daily from sun-synchronous orbits.",
	"Radio occultation payloads probe the atmosphere by timing signals from navigation satellites.",
	"A planned geostationary hyperspectral sounder will sharpen vertical humidity structure retrievals.",
}

var seedFAQs = []core.FAQEntry{
	{Question: "What instruments does INSAT-3D carry?", Answer: "INSAT-3D carries a six channel imager, a nineteen channel sounder, a data relay transponder and a search and rescue transponder."},
	{Question: "What orbit does INSAT-3D use?", Answer: "INSAT-3D operates from geostationary orbit at 82 degrees east."},
	{Question: "How often does INSAT-3D scan the full earth disc?", Answer: "A full earth disc scan completes every 26 minutes in normal mode."},
	{Question: "Who operates the INSAT satellites?", Answer: "The Indian Space Research Organisation operates the INSAT fleet, with meteorological products generated for the India Meteorological Department."},
	{Question: "What is Megha-Tropiques?", Answer: "Megha-Tropiques is a joint Indo-French satellite mission studying the water and energy cycles of the tropical atmosphere."},
	{Question: "What does SAPHIR measure?", Answer: "SAPHIR profiles tropospheric humidity in six channels near the 183 GHz water vapour absorption line."},
	{Question: "Why was SCATSAT-1 launched?", Answer: "SCATSAT-1 restored ocean surface wind measurements after the Oceansat-2 scatterometer degraded."},
	{Question: "How are cyclones tracked from space?", Answer: "Forecasters track cyclones in half-hourly geostationary imagery and estimate intensity with the Dvorak technique."},
	{Question: "What replaced Kalpana-1?", Answer: "The INSAT-3D and INSAT-3DR pair took over operational imaging after Kalpana-1 retired in 2017."},
	{Question: "What is sea surface temperature used for?", Answer: "Sea surface temperature fields feed marine forecasts, cyclone intensity models and fishery advisories."},
}

// seedCorpus mirrors the interchange shape the retrievit CLI reads, so a
// file produced for 'retrievit build' also seeds the demo database.
type seedCorpus struct {
	Mentions []struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Source string `json:"source"`
	} `json:"mentions"`
	Triples []struct {
		Subject     string  `json:"subject"`
		SubjectType string  `json:"subject_type"`
		Predicate   string  `json:"predicate"`
		Object      string  `json:"object"`
		ObjectType  string  `json:"object_type"`
		Confidence  float64 `json:"confidence"`
		Source      string  `json:"source"`
	} `json:"triples"`
	Documents []struct {
		Document string `json:"document"`
		Text     string `json:"text"`
	} `json:"documents"`
	FAQs []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"faqs"`
}

var seedFileName = flag.String("src", "", "JSON corpus file to seed instead of the built-in one")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// builtinInput assembles the handbook corpus shipped with the binary.
func builtinInput() ingestion.Input {
	input := ingestion.Input{
		Mentions: seedMentions,
		Triples:  seedTriples,
	}
	for _, text := range seedDocuments {
		input.Chunks = append(input.Chunks, &core.DocumentChunk{
			Document: "handbook",
			Text:     text,
		})
	}
	for i := range seedFAQs {
		faq := seedFAQs[i]
		input.FAQs = append(input.FAQs, &faq)
	}
	return input
}

// fileInput loads a corpus from a JSON interchange file.
func fileInput(filename string) (ingestion.Input, error) {
	var input ingestion.Input

	data, err := os.ReadFile(filename)
	if err != nil {
		return input, err
	}

	var corpus seedCorpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return input, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	for _, mention := range corpus.Mentions {
		input.Mentions = append(input.Mentions, core.RawMention{
			Name:   mention.Name,
			Type:   mention.Type,
			Source: mention.Source,
		})
	}
	for _, triple := range corpus.Triples {
		input.Triples = append(input.Triples, core.RawTriple{
			Subject:     triple.Subject,
			SubjectType: triple.SubjectType,
			Predicate:   triple.Predicate,
			Object:      triple.Object,
			ObjectType:  triple.ObjectType,
			Confidence:  triple.Confidence,
			Source:      triple.Source,
		})
	}
	for _, doc := range corpus.Documents {
		input.Chunks = append(input.Chunks, &core.DocumentChunk{
			Document: doc.Document,
			Text:     doc.Text,
		})
	}
	for _, faq := range corpus.FAQs {
		input.FAQs = append(input.FAQs, &core.FAQEntry{
			Question: faq.Question,
			Answer:   faq.Answer,
		})
	}

	return input, nil
}

func main() {
	var input ingestion.Input
	var err error
	if seedFileName != nil && *seedFileName != "" {
		input, err = fileInput(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		input = builtinInput()
	}

	// The default engine provider is the deterministic mock, so seeding
	// needs no AI service and pairs with the asker's default engine.
	engine, err := retrievit.NewEngine("./satdb")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()
	report, err := engine.Rebuild(ctx, input, ingestion.WithProgress(func(stage string, done, total int) {
		fmt.Printf("\rEmbedding %s: %d/%d", stage, done, total)
		if done == total {
			fmt.Println()
		}
	}))
	if err != nil {
		panic(err)
	}

	fmt.Printf("Seeded %d entities, %d edges, %d chunks and %d faqs in %v\n",
		report.Entities, report.Edges, len(input.Chunks), len(input.FAQs),
		report.Duration.Round(time.Millisecond))
}
