package remote

import "testing"

func TestParsePathValidS3URL(t *testing.T) {
	bucket, key, err := ParsePath("s3://my-bucket/path/to/data.csv")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" {
		t.Errorf("expected bucket my-bucket, got %q", bucket)
	}
	if key != "path/to/data.csv" {
		t.Errorf("expected key path/to/data.csv, got %q", key)
	}
}

func TestParsePathRejectsNonS3Path(t *testing.T) {
	if _, _, err := ParsePath("/local/path.csv"); err == nil {
		t.Errorf("expected an error for a non-s3 path")
	}
}

func TestParsePathRejectsMissingKey(t *testing.T) {
	if _, _, err := ParsePath("s3://bucket-only"); err == nil {
		t.Errorf("expected an error for a path with no key")
	}
	if _, _, err := ParsePath("s3://bucket/"); err == nil {
		t.Errorf("expected an error for a path with an empty key")
	}
}
