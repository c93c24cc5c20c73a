package features

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNewFeatureCache(t *testing.T) {
	cache := NewFeatureCache()
	if cache == nil {
		t.Fatal("NewFeatureCache returned nil")
	}
	if cache.Len() != 0 {
		t.Errorf("new cache should be empty, has %d entries", cache.Len())
	}
}

func TestFeatureCache_Load(t *testing.T) {
	cache := NewFeatureCache()
	path := createTestImage(t, 100, 50, color.RGBA{255, 0, 0, 255})

	f1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f1.Width != 100 || f1.Height != 50 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x50", f1.Width, f1.Height)
	}

	// Second load should return cached record
	f2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if f1 != f2 {
		t.Error("second Load did not return cached features")
	}
}

func TestFeatureCache_Load_NonExistent(t *testing.T) {
	cache := NewFeatureCache()
	if _, err := cache.Load("/nonexistent/path/to/logo.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestFeatureCache_Load_InvalidImage(t *testing.T) {
	cache := NewFeatureCache()

	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Error("failed extraction must not be cached")
	}
}

func TestFeatureCache_ClearAndEvict(t *testing.T) {
	cache := NewFeatureCache()
	path := createTestImage(t, 50, 50, color.RGBA{0, 255, 0, 255})

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Evict(path)
	if cache.Len() != 0 {
		t.Error("Evict did not remove features from cache")
	}

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d entries remain", cache.Len())
	}

	// Should not panic
	cache.Evict("/nonexistent/path")
}

func TestFeatureCache_ConcurrentAccess(t *testing.T) {
	cache := NewFeatureCache()
	path := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}
