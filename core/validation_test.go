package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateMention(t *testing.T) {
	tests := []struct {
		name    string
		mention *RawMention
		wantErr error
	}{
		{
			name:    "valid mention",
			mention: &RawMention{Name: "INSAT-3D", Type: "satellite", Source: "doc1"},
			wantErr: nil,
		},
		{
			name:    "missing type is valid",
			mention: &RawMention{Name: "Geostationary"},
			wantErr: nil,
		},
		{
			name:    "nil mention",
			mention: nil,
			wantErr: ErrInvalidMention,
		},
		{
			name:    "empty name",
			mention: &RawMention{Name: "", Type: "satellite"},
			wantErr: ErrEmptyName,
		},
		{
			name:    "whitespace-only name",
			mention: &RawMention{Name: "   ", Type: "satellite"},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMention(tt.mention)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMention() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMention() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTriple(t *testing.T) {
	tests := []struct {
		name    string
		triple  *RawTriple
		wantErr error
	}{
		{
			name: "valid triple",
			triple: &RawTriple{
				Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "Geostationary",
				Confidence: 0.9, Source: "doc1",
			},
			wantErr: nil,
		},
		{
			name:    "nil triple",
			triple:  nil,
			wantErr: ErrInvalidTriple,
		},
		{
			name:    "empty subject",
			triple:  &RawTriple{Subject: "", Predicate: "hasOrbit", Object: "Geostationary"},
			wantErr: ErrEmptyEndpoint,
		},
		{
			name:    "empty object",
			triple:  &RawTriple{Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "  "},
			wantErr: ErrEmptyEndpoint,
		},
		{
			name:    "empty predicate",
			triple:  &RawTriple{Subject: "INSAT-3D", Predicate: "", Object: "Geostationary"},
			wantErr: ErrEmptyPredicate,
		},
		{
			name: "NaN confidence",
			triple: &RawTriple{
				Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "Geostationary",
				Confidence: math.NaN(),
			},
			wantErr: ErrInvalidConfidence,
		},
		{
			name: "infinite confidence",
			triple: &RawTriple{
				Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "Geostationary",
				Confidence: math.Inf(1),
			},
			wantErr: ErrInvalidConfidence,
		},
		{
			name: "out-of-range confidence passes validation",
			triple: &RawTriple{
				Subject: "INSAT-3D", Predicate: "hasOrbit", Object: "Geostationary",
				Confidence: 1.5, // clamped by the normalizer, not rejected here
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTriple(tt.triple)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTriple() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTriple() error = %v, want %v", err, tt.wantErr)
			}
			if tt.triple != nil && !errors.Is(err, ErrInvalidTriple) {
				t.Errorf("ValidateTriple() error should wrap ErrInvalidTriple, got %v", err)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	if err := ValidateChunk(&DocumentChunk{Document: "doc.pdf", Text: "payload text"}); err != nil {
		t.Errorf("ValidateChunk() unexpected error: %v", err)
	}
	if err := ValidateChunk(nil); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunk(nil) error = %v, want ErrInvalidChunk", err)
	}
	if err := ValidateChunk(&DocumentChunk{Document: "doc.pdf"}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("ValidateChunk() error = %v, want ErrEmptyText", err)
	}
}

func TestValidateFAQ(t *testing.T) {
	valid := &FAQEntry{Question: "What is MOSDAC?", Answer: "A satellite data archive centre."}
	if err := ValidateFAQ(valid); err != nil {
		t.Errorf("ValidateFAQ() unexpected error: %v", err)
	}
	if err := ValidateFAQ(nil); !errors.Is(err, ErrInvalidFAQ) {
		t.Errorf("ValidateFAQ(nil) error = %v, want ErrInvalidFAQ", err)
	}
	if err := ValidateFAQ(&FAQEntry{Answer: "a"}); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("ValidateFAQ() error = %v, want ErrEmptyQuestion", err)
	}
	if err := ValidateFAQ(&FAQEntry{Question: "q"}); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("ValidateFAQ() error = %v, want ErrEmptyAnswer", err)
	}
}
