package pagination

import "testing"

func TestNormalizePerPage(t *testing.T) {
	if got := NormalizePerPage(0); got != DefaultPerPage {
		t.Fatalf("zero should fall back to default, got %d", got)
	}
	if got := NormalizePerPage(-3); got != DefaultPerPage {
		t.Fatalf("negative should fall back to default, got %d", got)
	}
	if got := NormalizePerPage(500); got != MaxPerPage {
		t.Fatalf("oversized should clamp to max, got %d", got)
	}
	if got := NormalizePerPage(10); got != 10 {
		t.Fatalf("valid value should pass through, got %d", got)
	}
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		total   int
		perPage int
		want    int
	}{
		{total: 0, perPage: 45, want: 1},
		{total: 1, perPage: 45, want: 1},
		{total: 45, perPage: 45, want: 1},
		{total: 46, perPage: 45, want: 2},
		{total: 90, perPage: 45, want: 2},
		{total: 91, perPage: 45, want: 3},
	}
	for _, tt := range tests {
		if got := LastPage(tt.total, tt.perPage); got != tt.want {
			t.Fatalf("LastPage(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestNormalizePageClampsToRange(t *testing.T) {
	if got := NormalizePage(0, 90, 45); got != 1 {
		t.Fatalf("page below range should clamp to 1, got %d", got)
	}
	if got := NormalizePage(7, 90, 45); got != 2 {
		t.Fatalf("page above range should clamp to last, got %d", got)
	}
	if got := NormalizePage(2, 90, 45); got != 2 {
		t.Fatalf("valid page should pass through, got %d", got)
	}
	if got := NormalizePage(3, 0, 45); got != 1 {
		t.Fatalf("empty result set should clamp to 1, got %d", got)
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 45); got != 0 {
		t.Fatalf("first page offset should be 0, got %d", got)
	}
	if got := Offset(3, 45); got != 90 {
		t.Fatalf("third page offset should be 90, got %d", got)
	}
	if got := Offset(0, 45); got != 0 {
		t.Fatalf("invalid page should behave like page 1, got %d", got)
	}
}
