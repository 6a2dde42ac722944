// Command viewer renders a scene progressively into a window, presenting the
// averaged image after every iteration.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

func init() {
	// GLFW and GL calls must stay on the main thread
	runtime.LockOSThread()
}

// surface is the texture and read framebuffer the image is blitted from
type surface struct {
	texture     uint32
	framebuffer uint32
	width       int32
	height      int32
}

func newSurface(width, height int) (*surface, error) {
	s := &surface{width: int32(width), height: int32(height)}

	gl.GenTextures(1, &s.texture)
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, s.width, s.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	gl.GenFramebuffers(1, &s.framebuffer)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.framebuffer)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, s.texture, 0)
	if status := gl.CheckFramebufferStatus(gl.READ_FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		s.release()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return s, nil
}

// draw uploads img and scales it into the window, flipping rows since the
// image's first row is the top
func (s *surface) draw(img *image.RGBA, windowWidth, windowHeight int) {
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, s.width, s.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	x0, y0, x1, y1 := fitRect(int(s.width), int(s.height), windowWidth, windowHeight)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.framebuffer)
	gl.BlitFramebuffer(0, 0, s.width, s.height, int32(x0), int32(y1), int32(x1), int32(y0), gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
}

func (s *surface) release() {
	gl.DeleteFramebuffers(1, &s.framebuffer)
	gl.DeleteTextures(1, &s.texture)
}

// fitRect centres an image in the window preserving its aspect ratio
func fitRect(imageWidth, imageHeight, windowWidth, windowHeight int) (x0, y0, x1, y1 int) {
	if imageWidth <= 0 || imageHeight <= 0 || windowWidth <= 0 || windowHeight <= 0 {
		return 0, 0, 0, 0
	}
	width, height := windowWidth, windowWidth*imageHeight/imageWidth
	if height > windowHeight {
		width, height = windowHeight*imageWidth/imageHeight, windowHeight
	}
	x0 = (windowWidth - width) / 2
	y0 = (windowHeight - height) / 2
	return x0, y0, x0 + width, y0 + height
}

func main() {
	sceneID := flag.String("scene", "cornell-box", "Scene id, or gltf:<path>")
	width := flag.Int("width", 512, "Image width")
	height := flag.Int("height", 0, "Image height (0 derives it from the aspect ratio)")
	bounces := flag.Int("bounces", 0, "Bounce budget per path (0 keeps the scene default)")
	texture := flag.String("texture", "", "Image used by the textured scene")
	maxSamples := flag.Int("samples", 0, "Stop after this many samples per pixel (0 = never)")
	opts := renderer.DefaultOptions()
	flag.IntVar(&opts.NumWorkers, "workers", 0, "Worker goroutines (0 = number of CPUs)")
	flag.BoolVar(&opts.SortByMaterial, "sort", false, "Sort paths by material before shading")
	flag.BoolVar(&opts.ProceduralTextures, "procedural", false, "Use the procedural palette instead of image textures")
	opts.LogEvery = 64
	flag.Parse()

	sc, warnings, err := scene.Load(*sceneID, scene.LoadOptions{
		Camera:     scene.CameraConfig{Width: *width, Height: *height},
		MaxBounces: *bounces,
		Texture:    *texture,
	})
	if err != nil {
		log.Fatalf("Error loading scene: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("Warning: %s", warning)
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err := glfw.CreateWindow(sc.Width, sc.Height, "Wavefront Path Tracer - "+sc.Name, nil, nil)
	if err != nil {
		log.Fatalf("failed to create window: %v", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	glfw.SwapInterval(0)

	if err := gl.Init(); err != nil {
		log.Fatalf("failed to initialize OpenGL: %v", err)
	}

	surf, err := newSurface(sc.Width, sc.Height)
	if err != nil {
		log.Fatalf("failed to create surface: %v", err)
	}
	defer surf.release()

	session, err := renderer.NewSession(sc, opts, renderer.NewDefaultLogger())
	if err != nil {
		log.Fatalf("failed to start render session: %v", err)
	}
	defer session.Close()

	// R restarts accumulation, Escape quits
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyR:
			session.ResetImage()
		}
	})

	img := image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
	frame := 0
	for !window.ShouldClose() {
		if *maxSamples <= 0 || session.Samples() < *maxSamples {
			if err := session.RenderIteration(img, frame, session.Samples()); err != nil {
				log.Fatalf("render failed: %v", err)
			}
			window.SetTitle(fmt.Sprintf("Wavefront Path Tracer - %s (%d spp)", sc.Name, session.Samples()))
		}
		frame++

		fbWidth, fbHeight := window.GetFramebufferSize()
		surf.draw(img, fbWidth, fbHeight)
		window.SwapBuffers()
		glfw.PollEvents()
	}
}
