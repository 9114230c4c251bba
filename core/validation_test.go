package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Key:        "pie",
				Attributes: []Attribute{{Name: "name", Value: "apple pie"}},
			},
			wantErr: nil,
		},
		{
			name: "valid document with empty value",
			doc: &Document{
				Attributes: []Attribute{{Name: "name", Value: ""}},
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "no attributes",
			doc:     &Document{Key: "empty"},
			wantErr: ErrNoAttributes,
		},
		{
			name: "empty attribute name",
			doc: &Document{
				Attributes: []Attribute{{Name: "", Value: "x"}},
			},
			wantErr: ErrEmptyAttributeName,
		},
		{
			name: "duplicate attribute name",
			doc: &Document{
				Attributes: []Attribute{
					{Name: "name", Value: "a"},
					{Name: "name", Value: "b"},
				},
			},
			wantErr: ErrDuplicateAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateDocument() expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error = %v, should wrap ErrInvalidDocument", err)
			}
		})
	}
}
