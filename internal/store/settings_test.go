package store

import (
	"errors"
	"testing"
)

func TestSettingRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingGalleryIndex); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set(SettingGalleryDir, "/tmp/a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(SettingGalleryDir, "/tmp/b"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, err := repo.Get(SettingGalleryDir); err != nil || v != "/tmp/b" {
		t.Errorf("Get = %q, %v, want /tmp/b", v, err)
	}

	if err := repo.Delete(SettingGalleryDir); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(SettingGalleryDir); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}

func TestSettingRepository_Typed(t *testing.T) {
	repo := newTestStore(t).Settings()

	tests := []struct {
		name string
		set  func() error
		get  func() interface{}
		want interface{}
	}{
		{
			name: "missing int uses default",
			set:  func() error { return nil },
			get:  func() interface{} { return repo.GetInt("absent", 7) },
			want: 7,
		},
		{
			name: "int round trip",
			set:  func() error { return repo.SetInt(SettingGalleryIndex, 12) },
			get:  func() interface{} { return repo.GetInt(SettingGalleryIndex, 0) },
			want: 12,
		},
		{
			name: "garbage int uses default",
			set:  func() error { return repo.Set("bad.int", "twelve") },
			get:  func() interface{} { return repo.GetInt("bad.int", 3) },
			want: 3,
		},
		{
			name: "bool round trip",
			set:  func() error { return repo.SetBool(SettingEnabled, false) },
			get:  func() interface{} { return repo.GetBool(SettingEnabled, true) },
			want: false,
		},
		{
			name: "missing bool uses default",
			set:  func() error { return nil },
			get:  func() interface{} { return repo.GetBool("absent.bool", true) },
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); err != nil {
				t.Fatalf("set: %v", err)
			}
			if got := tt.get(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
