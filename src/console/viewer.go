package console

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"runtime"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageViewer checks that a file decodes as an image and opens it with the
// desktop's default viewer.
type ImageViewer struct {
	// Launch opens a decoded image. Nil means the platform opener.
	Launch func(path string) error
}

func (v ImageViewer) Show(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("%s is not a displayable image: %w", path, err)
	}
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("%s: empty %s image", path, format)
	}

	launch := v.Launch
	if launch == nil {
		launch = openWithDesktop
	}
	return launch(path)
}

func openWithDesktop(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open viewer: %w", err)
	}
	go cmd.Wait()
	return nil
}
