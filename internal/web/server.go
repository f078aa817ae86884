package web

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MuchTitan/go-log-search/internal"
	"github.com/MuchTitan/go-log-search/internal/config"
	"github.com/MuchTitan/go-log-search/internal/engine"
	"github.com/MuchTitan/go-log-search/internal/pipeline"
	"github.com/MuchTitan/go-log-search/internal/resolver"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const previewLimit = 100

// Default patterns baked into generated job configs.
const (
	defaultTimestampRegex  = `(?P<ts>\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2})`
	defaultTimestampLayout = "2006-01-02 15:04:05"

	haproxyHTTPPattern = `(?P<client_ip>\d{1,3}(?:\.\d{1,3}){3}):\d+\s+\[(?P<accept_date>[^\]]+)\]\s+(?P<frontend>\S+)\s+(?P<backend>\S+)/(?P<server>\S+)\s+(?P<Tq>\d+)/(?P<Tw>\d+)/(?P<Tc>\d+)/(?P<Tr>\d+)/(?P<Tt>\d+)\s+(?P<status>\d{3})\s+(?P<bytes>\d+)\s+(?P<captured_request_cookie>\S+)\s+(?P<captured_response_cookie>\S+)\s+(?P<termination_state>\S+)\s+(?P<actconn>\d+)/(?P<feconn>\d+)/(?P<beconn>\d+)/(?P<srvconn>\d+)/(?P<retries>\d+)\s+(?P<srv_queue>\d+)/(?P<backend_queue>\d+)\s+"(?P<method>\S+)\s+(?P<path>[^"]+)\s+(?P<http>HTTP/\d\.\d)"\s+"(?P<referrer>[^"]*)"\s+"(?P<user_agent>[^"]*)"`
)

const indexHTML = `<!doctype html>
<html>
<head><title>Log Search</title></head>
<body>
<h1>Log Search</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
  <p><input type="file" name="file" required> (a log file or a zip of log files)</p>
  <p>Keywords (one per line):<br><textarea name="keywords" rows="3" cols="60"></textarea></p>
  <p>Regexes (one per line):<br><textarea name="regexes" rows="3" cols="60"></textarea></p>
  <p>Match mode:
    <select name="match_mode"><option value="any">any</option><option value="all">all</option></select>
    Ignore case: <input type="checkbox" name="ignore_case" value="true" checked>
    Format:
    <select name="format"><option value="jsonl">jsonl</option><option value="csv">csv</option></select>
  </p>
  <p><button type="submit">Search</button></p>
</form>
</body>
</html>`

// Server is the upload/preview front end. It generates a config for each
// uploaded job, runs the engine in-process and renders a capped preview of
// the produced output file.
type Server struct {
	app        *fiber.App
	resultsDir string
	uploadsDir string
}

func New(resultsDir, uploadsDir string) (*Server, error) {
	for _, dir := range []string{resultsDir, uploadsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create %s: %w", dir, err)
		}
	}

	s := &Server{
		app:        fiber.New(fiber.Config{BodyLimit: 256 << 20}),
		resultsDir: resultsDir,
		uploadsDir: uploadsDir,
	}

	s.app.Get("/", s.handleIndex)
	s.app.Post("/upload", s.handleUpload)
	s.app.Get("/results/:id/:name", s.handleDownload)

	return s, nil
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(indexHTML)
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}

	format := c.FormValue("format", "jsonl")
	if format != "jsonl" && format != "csv" {
		return fiber.NewError(fiber.StatusBadRequest, "format must be jsonl or csv")
	}

	jobID := uuid.NewString()
	workdir := filepath.Join(s.resultsDir, jobID)
	if err := os.MkdirAll(workdir, 0755); err != nil {
		return fmt.Errorf("could not create job workdir: %w", err)
	}

	uploadPath := filepath.Join(s.uploadsDir, jobID+"_"+filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, uploadPath); err != nil {
		return fmt.Errorf("could not save upload: %w", err)
	}

	if strings.EqualFold(filepath.Ext(uploadPath), ".zip") {
		if err := extractZip(uploadPath, workdir); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("could not extract zip: %v", err))
		}
	} else {
		target := filepath.Join(workdir, filepath.Base(fileHeader.Filename))
		if err := copyFile(uploadPath, target); err != nil {
			return fmt.Errorf("could not stage upload: %w", err)
		}
	}

	outName := "results." + format
	outPath := filepath.Join(workdir, outName)
	cfg := s.jobConfig(c, workdir, format, outPath)

	eng, err := engine.New(cfg, pipeline.Window{})
	if errors.Is(err, resolver.ErrNoFiles) {
		return fiber.NewError(fiber.StatusBadRequest, "upload contained no log files")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	stats, runErr := eng.Run(context.Background())
	if cerr := eng.Close(); runErr == nil {
		runErr = cerr
	}
	if runErr != nil {
		logrus.WithField("job", jobID).WithError(runErr).Error("scan failed")
		return fiber.NewError(fiber.StatusInternalServerError, "scan failed")
	}

	preview, err := readPreview(outPath, format)
	if err != nil {
		logrus.WithField("job", jobID).WithError(err).Warn("could not build preview")
	}

	return c.JSON(fiber.Map{
		"id":       jobID,
		"stats":    statsMap(stats),
		"preview":  preview,
		"download": "/results/" + jobID + "/" + outName,
	})
}

func (s *Server) jobConfig(c *fiber.Ctx, workdir, format, outPath string) *config.Config {
	return &config.Config{
		Include: []string{
			filepath.Join(workdir, "**", "*.log"),
			filepath.Join(workdir, "**", "*.out"),
			filepath.Join(workdir, "**", "*.gz"),
			filepath.Join(workdir, "*.log"),
			filepath.Join(workdir, "*.out"),
			filepath.Join(workdir, "*.gz"),
			filepath.Join(workdir, "*.txt"),
		},
		Exclude:    []string{filepath.Join(workdir, "**", "archive", "**")},
		Encoding:   "utf-8",
		IgnoreCase: c.FormValue("ignore_case", "true") == "true",
		Keywords:   splitLines(c.FormValue("keywords")),
		Regexes:    splitLines(c.FormValue("regexes")),
		MatchMode:  c.FormValue("match_mode", "any"),
		Timestamp: config.TimestampConfig{
			Enabled:    true,
			Regex:      defaultTimestampRegex,
			Layout:     defaultTimestampLayout,
			AssumeZone: "local",
		},
		FieldPatterns: []string{haproxyHTTPPattern},
		Output:        config.OutputConfig{Format: format, Path: outPath},
	}
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	id, name := c.Params("id"), c.Params("name")
	if strings.ContainsAny(id, `/\`) || strings.ContainsAny(name, `/\`) ||
		strings.Contains(id, "..") || strings.Contains(name, "..") {
		return fiber.ErrBadRequest
	}
	path := filepath.Join(s.resultsDir, id, name)
	if _, err := os.Stat(path); err != nil {
		return fiber.ErrNotFound
	}
	return c.SendFile(path)
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func statsMap(stats internal.Stats) fiber.Map {
	return fiber.Map{
		"files":   stats.FilesScanned,
		"lines":   stats.LinesScanned,
		"matches": stats.LinesMatched,
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func extractZip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == "" || strings.Contains(f.Name, "..") || filepath.IsAbs(f.Name) {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readPreview reads back up to previewLimit records from the produced
// output file so the browser gets an inline result table.
func readPreview(path, format string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preview := make([]map[string]any, 0, previewLimit)

	switch format {
	case "jsonl":
		dec := json.NewDecoder(f)
		for len(preview) < previewLimit {
			var obj map[string]any
			if err := dec.Decode(&obj); err != nil {
				break
			}
			preview = append(preview, obj)
		}
	case "csv":
		r := csv.NewReader(f)
		header, err := r.Read()
		if err != nil {
			return preview, nil
		}
		for len(preview) < previewLimit {
			row, err := r.Read()
			if err != nil {
				break
			}
			obj := make(map[string]any, len(header))
			for i, name := range header {
				if i < len(row) {
					obj[name] = row[i]
				}
			}
			preview = append(preview, obj)
		}
	}

	return preview, nil
}
