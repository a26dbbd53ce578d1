package serialization

import (
	"errors"
	"testing"
)

func header(metas ...TensorMeta) *Header {
	return &Header{Tensors: metas}
}

func TestValidateHeaderAccepts(t *testing.T) {
	h := header(
		TensorMeta{Name: "a", Offset: 0, Size: 24},
		TensorMeta{Name: "b", Offset: 24, Size: 8},
	)
	if err := ValidateHeader(h, 32, ValidationStrict); err != nil {
		t.Fatalf("expected valid header, got %v", err)
	}
}

func TestValidateHeaderRejectsNegativeOffset(t *testing.T) {
	h := header(TensorMeta{Name: "a", Offset: -8, Size: 8})
	err := ValidateHeader(h, 32, ValidationStrict)
	if !errors.Is(err, ErrNegativeOffset) {
		t.Fatalf("expected ErrNegativeOffset, got %v", err)
	}
}

func TestValidateHeaderRejectsOutOfBounds(t *testing.T) {
	h := header(TensorMeta{Name: "a", Offset: 16, Size: 24})
	err := ValidateHeader(h, 32, ValidationStrict)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestValidateHeaderRejectsOverlap(t *testing.T) {
	h := header(
		TensorMeta{Name: "a", Offset: 0, Size: 24},
		TensorMeta{Name: "b", Offset: 16, Size: 8},
	)
	err := ValidateHeader(h, 32, ValidationStrict)
	if !errors.Is(err, ErrOffsetOverlap) {
		t.Fatalf("expected ErrOffsetOverlap, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("expected a *ValidationError")
	}
	if verr.Tensor != "a" || verr.Tensor2 != "b" {
		t.Errorf("expected tensors a and b in error, got %q and %q", verr.Tensor, verr.Tensor2)
	}
}

func TestValidateHeaderNoneSkipsChecks(t *testing.T) {
	h := header(TensorMeta{Name: "a", Offset: -1, Size: 100})
	if err := ValidateHeader(h, 8, ValidationNone); err != nil {
		t.Fatalf("ValidationNone must not reject, got %v", err)
	}
}
