package segment

import "testing"

func TestLibraryPath(t *testing.T) {
	cases := []struct {
		goos, goarch, want string
	}{
		{"windows", "amd64", "./lib/onnxruntime.dll"},
		{"linux", "amd64", "./lib/onnxruntime_amd64.so"},
		{"linux", "arm64", "./lib/onnxruntime_arm64.so"},
		{"darwin", "arm64", "./lib/onnxruntime_arm64.dylib"},
		{"freebsd", "amd64", "./lib/onnxruntime_amd64.so"},
	}
	for _, c := range cases {
		if got := libraryPath("./lib/", c.goos, c.goarch); got != c.want {
			t.Errorf("%s/%s: got %s, want %s", c.goos, c.goarch, got, c.want)
		}
	}
}

func TestOnnxConfigRequiresLibPath(t *testing.T) {
	cfg := &OnnxConfig{}
	if err := cfg.New(); err == nil {
		t.Fatal("OnnxRuntimeLibPath 为空时应报错")
	}
	cfg.Destroy()
}
