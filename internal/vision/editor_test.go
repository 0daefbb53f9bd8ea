package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/config"
)

var pngPixel = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestOpenRouterEditorImagesArray(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		assert.Equal(t, openRouterTitle, r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"role":"assistant","content":"done","images":[{"type":"image_url","image_url":{"url":"data:image/png;base64,` + base64.StdEncoding.EncodeToString(pngPixel) + `"}}]}}]}`))
	}))
	defer srv.Close()

	editor := NewOpenRouterEditor("sk-or-test", "riverflow", srv.URL+"/", time.Second, nil)
	result, err := editor.Edit(context.Background(), EditRequest{Image: []byte("jpeg-bytes"), Prompt: "add a lamp"})
	require.NoError(t, err)

	assert.Equal(t, pngPixel, result.Data)
	assert.Equal(t, "image/png", result.MIME)
	assert.Equal(t, ".png", result.Extension())

	assert.Equal(t, "riverflow", captured.Model)
	assert.Equal(t, []string{"image", "text"}, captured.Modalities)
	require.Len(t, captured.Messages, 1)
	require.Len(t, captured.Messages[0].Content, 2)
	assert.Equal(t, "add a lamp", captured.Messages[0].Content[0].Text)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), captured.Messages[0].Content[1].ImageURL.URL)
}

func TestOpenRouterEditorContentParts(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngPixel)
	cases := map[string]string{
		"image_url part": `{"choices":[{"message":{"content":[{"type":"text","text":"hi"},{"type":"image_url","image_url":{"url":"data:image/webp;base64,` + encoded + `"}}]}}]}`,
		"b64_json part":  `{"choices":[{"message":{"content":[{"type":"image","b64_json":"` + encoded + `"}]}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			editor := NewOpenRouterEditor("key", "m", srv.URL, time.Second, nil)
			result, err := editor.Edit(context.Background(), EditRequest{Image: []byte("x"), Prompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, pngPixel, result.Data)
		})
	}
}

func TestOpenRouterEditorFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"http error": {status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited"}}`},
		"no image":   {status: http.StatusOK, body: `{"choices":[{"message":{"content":"I cannot edit images"}}]}`},
		"api error":  {status: http.StatusOK, body: `{"error":{"message":"model not found"}}`},
		"not json":   {status: http.StatusOK, body: `<html>`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			editor := NewOpenRouterEditor("key", "m", srv.URL, time.Second, nil)
			_, err := editor.Edit(context.Background(), EditRequest{Image: []byte("x"), Prompt: "p"})
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindService), "got %v", err)
		})
	}
}

func TestOpenRouterEditorRequiresKey(t *testing.T) {
	for _, key := range []string{"", "sk-or-..."} {
		editor := NewOpenRouterEditor(key, "m", "", time.Second, nil)
		_, err := editor.Edit(context.Background(), EditRequest{Image: []byte("x"), Prompt: "p"})
		assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	}
}

func TestEditRequestValidation(t *testing.T) {
	editor := NewOpenRouterEditor("key", "m", "http://127.0.0.1:1", time.Second, nil)
	_, err := editor.Edit(context.Background(), EditRequest{Prompt: "p"})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	_, err = editor.Edit(context.Background(), EditRequest{Image: []byte("x")})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
}

func TestGeminiEditorInlineData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash-image:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"` + base64.StdEncoding.EncodeToString(pngPixel) + `"}}]}}]}`))
	}))
	defer srv.Close()

	editor := NewGeminiEditor("gem-key", "models/gemini-2.5-flash-image", time.Second)
	editor.baseURL = srv.URL + "/"

	result, err := editor.Edit(context.Background(), EditRequest{Image: []byte("x"), Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, pngPixel, result.Data)
	assert.Equal(t, "image/png", result.MIME)
}

func TestGeminiEditorRequiresKey(t *testing.T) {
	_, err := NewGeminiEditor("", "", 0).Edit(context.Background(), EditRequest{Image: []byte("x"), Prompt: "p"})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
}

func TestVertexEditorConfig(t *testing.T) {
	_, err := NewVertexEditor(context.Background(), VertexConfig{Location: "us-central1", Model: "imagen"}, time.Second)
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))

	editor, err := NewVertexEditor(context.Background(), VertexConfig{ProjectID: "p", Location: "europe-west4", Model: "imagen-3.0-capability-001"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "projects/p/locations/europe-west4/publishers/google/models/imagen-3.0-capability-001", editor.endpoint())
}

func TestVertexPayloadAndPrediction(t *testing.T) {
	instance, params, err := vertexPayload(EditRequest{Image: []byte("abc"), Prompt: "paint walls"})
	require.NoError(t, err)
	fields := instance.GetStructValue().GetFields()
	assert.Equal(t, "paint walls", fields["prompt"].GetStringValue())
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), fields["image"].GetStructValue().GetFields()["bytesBase64Encoded"].GetStringValue())
	assert.Equal(t, "inpainting-free-form", params.GetStructValue().GetFields()["editMode"].GetStringValue())

	prediction, err := structpb.NewValue(map[string]any{
		"bytesBase64Encoded": base64.StdEncoding.EncodeToString(pngPixel),
		"mimeType":           "image/png",
	})
	require.NoError(t, err)
	result, err := decodePrediction([]*structpb.Value{prediction})
	require.NoError(t, err)
	assert.Equal(t, pngPixel, result.Data)

	_, err = decodePrediction(nil)
	assert.True(t, apperr.IsKind(err, apperr.KindService))
}

func TestNewEditorSelectsProvider(t *testing.T) {
	cfg := config.Default().Images
	cfg.OpenRouterAPIKey = "k"
	editor, err := NewEditor(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterEditor{}, editor)

	cfg.Provider = config.ProviderGemini
	editor, err = NewEditor(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &GeminiEditor{}, editor)

	cfg.Provider = config.ProviderVertex
	_, err = NewEditor(context.Background(), cfg, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))

	cfg.Provider = "dalle"
	_, err = NewEditor(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	data, mime, err := decodeDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("hi")))
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = decodeDataURL("https://example.com/a.png")
	assert.Error(t, err)
	_, _, err = decodeDataURL("data:image/png;base64")
	assert.Error(t, err)
}

func TestPrepareImageScalesAndEncodesJPEG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2048, 1024))
	for x := 0; x < 2048; x++ {
		src.Set(x, 10, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	path := filepath.Join(t.TempDir(), "room.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, err := PrepareImage(path, MaxImageDimension)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, decoded.Bounds().Dx())
	assert.Equal(t, 512, decoded.Bounds().Dy())
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 400))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := PrepareImageBytes(buf.Bytes(), 0)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestPrepareImageErrors(t *testing.T) {
	_, err := PrepareImage(filepath.Join(t.TempDir(), "missing.jpg"), 0)
	assert.True(t, apperr.IsKind(err, apperr.KindIO))

	_, err = PrepareImageBytes([]byte("not an image"), 0)
	assert.True(t, apperr.IsKind(err, apperr.KindIO))
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(3000, 1000, 1024)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 341, h)
	w, h = fitWithin(500, 2000, 1024)
	assert.Equal(t, 256, w)
	assert.Equal(t, 1024, h)
}

func TestBlankCanvas(t *testing.T) {
	out, err := BlankCanvas(640, 480)
	require.NoError(t, err)
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
	r, g, b, _ := decoded.At(10, 10).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}
