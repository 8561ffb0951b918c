// package formatter provides functions to export album data to various formats (CSV, Markdown, plain text, JSON, YAML)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is an export format accepted by [WriteExport].
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported export format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatText}
}

// ParseFormat resolves a format name, accepting "md", "yml" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ExportToCSV converts an album to CSV format with columns: ID, Disc, Track, Title, Artist, Album, Duration, Suffix, BitRate
func ExportToCSV(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Disc", "Track", "Title", "Artist", "Album", "Duration", "Suffix", "BitRate"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range album.Songs {
		record := []string{
			song.ID,
			strconv.Itoa(song.DiscNumber),
			strconv.Itoa(song.Track),
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
			song.Suffix,
			strconv.Itoa(song.BitRate),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts an album to Markdown format with optional cover image
func ExportToMarkdown(album *models.Album, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", album.Name)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if album.Artist != "" {
		fmt.Fprintf(&buf, "**Artist**: %s\n", album.Artist)
	}
	if album.Year > 0 {
		fmt.Fprintf(&buf, "**Year**: %d\n", album.Year)
	}
	if album.Genre != "" {
		fmt.Fprintf(&buf, "**Genre**: %s\n", album.Genre)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(album.Songs))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", shared.FormatDuration(album.Duration))

	buf.WriteString("## Tracks\n\n")
	for i, song := range album.Songs {
		n := song.Track
		if n <= 0 {
			n = i + 1
		}
		artistPart := ""
		if song.Artist != "" && song.Artist != album.Artist {
			artistPart = fmt.Sprintf(" (%s)", song.Artist)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", n, song.Title, artistPart, shared.FormatDuration(song.Duration))
	}
	return buf.Bytes(), nil
}

// ExportToText converts an album to plain text format
func ExportToText(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Album: %s\n", album.Name)
	if album.Artist != "" {
		fmt.Fprintf(&buf, "Artist: %s\n", album.Artist)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(album.Songs))

	for i, song := range album.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders the album with its songs as indented JSON
func ExportToJSON(album *models.Album) ([]byte, error) {
	return shared.MarshalJSON(album, true)
}

// ExportToYAML renders the album with its songs as YAML
func ExportToYAML(album *models.Album) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(album); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of album metadata (without songs)
func ToMetadataJSON(album models.AlbumListItem) ([]byte, error) {
	return shared.MarshalJSON(album, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports an album to CSV format with accompanying metadata JSON file.
//
// Defaults to the album ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(album *models.Album, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = album.ID
	}

	csvData, err := ExportToCSV(album)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(album.AlbumListItem)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports an album to Markdown format in a dedicated directory.
//
// Directory name defaults to the album ID. When imageURL is set the cover is downloaded
// to {dir}/cover.jpg; a failed download only drops the image.
func WriteMarkdownExport(ctx context.Context, album *models.Album, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = album.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		if imageData, err := DownloadImage(ctx, imageURL); err == nil {
			coverImagePath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverImagePath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(album, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports an album to plain text format.
//
// Defaults to {album.ID}_tracks.txt as the filename.
func WriteTextExport(album *models.Album, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", album.ID)
	}

	textData, err := ExportToText(album)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteExport writes album to outputDir in the given format and returns the files created.
//
// imageURL is only used by the Markdown format.
func WriteExport(ctx context.Context, album *models.Album, format Format, outputDir, imageURL string) ([]string, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	base := filepath.Join(outputDir, album.ID)

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(album, base)
		if err != nil {
			return nil, err
		}
		return []string{res.TracksFile, res.MetadataFile}, nil
	case FormatMarkdown:
		res, err := WriteMarkdownExport(ctx, album, base, imageURL)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case FormatText:
		path, err := WriteTextExport(album, base+"_tracks.txt")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case FormatYAML:
		return writeEncoded(album, base+".yaml", ExportToYAML)
	case FormatJSON:
		return writeEncoded(album, base+".json", ExportToJSON)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

func writeEncoded(album *models.Album, path string, encode func(*models.Album) ([]byte, error)) ([]string, error) {
	data, err := encode(album)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}
