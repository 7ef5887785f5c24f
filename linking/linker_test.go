package linking

import (
	"context"
	"strings"
	"testing"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage/badger"
)

func newTestLinker(t *testing.T, cfg Config) (*Linker, *badger.Repositories) {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("opening memory repositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })

	return NewLinker(repos.Chunks, repos.Images, repos.ErrorCodes, cfg), repos
}

func seedChunks(t *testing.T, repos *badger.Repositories, docId core.ID, pageTexts map[int][]string) []*core.Chunk {
	t.Helper()

	var chunks []*core.Chunk
	ordinal := 0
	for page := 1; page <= len(pageTexts); page++ {
		for _, text := range pageTexts[page] {
			chunks = append(chunks, &core.Chunk{
				Id:         core.ChunkID(docId, page, ordinal),
				DocumentId: docId,
				PageNumber: page,
				Ordinal:    ordinal,
				Text:       text,
				TextHash:   core.IDFromContent(text),
			})
			ordinal++
		}
	}
	stored, err := repos.Chunks.ReplaceChunks(context.Background(), docId, chunks)
	if err != nil {
		t.Fatalf("seeding chunks: %v", err)
	}
	return stored
}

func seedImage(t *testing.T, repos *badger.Repositories, docId core.ID, page, index int) *core.Image {
	t.Helper()

	images, err := repos.Images.GetImages(context.Background(), docId)
	if err != nil {
		t.Fatalf("listing images: %v", err)
	}
	images = append(images, &core.Image{
		Id:         core.ImageID(docId, page, index),
		DocumentId: docId,
		PageNumber: page,
		Index:      index,
		Data:       []byte{0x01},
	})
	stored, err := repos.Images.ReplaceImages(context.Background(), docId, images)
	if err != nil {
		t.Fatalf("seeding image: %v", err)
	}
	return stored[len(stored)-1]
}

func TestLinkFigureReference(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-figure")

	seedChunks(t, repos, docId, map[int][]string{
		1: {"Remove the rear cover. See Figure 4-2 for the fuser assembly location. Reinstall in reverse order."},
	})
	img := seedImage(t, repos, docId, 1, 0)

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.FigureLinks != 1 {
		t.Fatalf("FigureLinks = %d, want 1", summary.FigureLinks)
	}

	got, err := repos.Images.GetImage(context.Background(), img.Id)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got.FigureNumber != "4-2" {
		t.Errorf("FigureNumber = %q, want %q", got.FigureNumber, "4-2")
	}
	if !strings.Contains(got.FigureContext, "Figure 4-2") {
		t.Errorf("FigureContext = %q, want the referencing sentence", got.FigureContext)
	}
	if got.FigureContext != "See Figure 4-2 for the fuser assembly location." {
		t.Errorf("FigureContext = %q, want the sentence alone", got.FigureContext)
	}
	if got.ChunkId == 0 {
		t.Error("ChunkId not set on linked image")
	}
}

func TestLinkTwoImagesDistinctFigures(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-two-figures")

	seedChunks(t, repos, docId, map[int][]string{
		1: {"Figure 3-1 shows the paper path. Figure 3-2 shows the transfer roller."},
	})
	first := seedImage(t, repos, docId, 1, 0)
	second := seedImage(t, repos, docId, 1, 1)

	if _, err := linker.LinkDocument(context.Background(), docId); err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}

	gotFirst, _ := repos.Images.GetImage(context.Background(), first.Id)
	gotSecond, _ := repos.Images.GetImage(context.Background(), second.Id)
	if gotFirst.FigureNumber != "3-1" || gotSecond.FigureNumber != "3-2" {
		t.Errorf("figures = %q, %q, want 3-1, 3-2", gotFirst.FigureNumber, gotSecond.FigureNumber)
	}
}

func TestLinkFigureNeighboringPageWindow(t *testing.T) {
	linker, repos := newTestLinker(t, Config{PageWindow: 1})
	docId := core.IDFromContent("link-window")

	// Reference is on page 1, image is on page 2.
	seedChunks(t, repos, docId, map[int][]string{
		1: {"The exploded view in Figure 7 covers the pickup assembly."},
		2: {"Torque all screws to specification."},
	})
	img := seedImage(t, repos, docId, 2, 0)

	if _, err := linker.LinkDocument(context.Background(), docId); err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	got, _ := repos.Images.GetImage(context.Background(), img.Id)
	if got.FigureNumber != "7" {
		t.Errorf("FigureNumber = %q, want %q", got.FigureNumber, "7")
	}
}

func TestLinkNoFigureReferenceIsTerminal(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-none")

	seedChunks(t, repos, docId, map[int][]string{
		1: {"No illustrations are referenced on this page."},
	})
	img := seedImage(t, repos, docId, 1, 0)

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.FigureLinks != 0 {
		t.Errorf("FigureLinks = %d, want 0", summary.FigureLinks)
	}
	got, _ := repos.Images.GetImage(context.Background(), img.Id)
	if got.FigureNumber != "" || got.ChunkId != 0 {
		t.Errorf("unlinked image mutated: %+v", got)
	}
}

func TestLinkFigureNeverOverridden(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-sticky")

	chunks := seedChunks(t, repos, docId, map[int][]string{
		1: {"Figure 9 shows the formatter board."},
	})
	img := seedImage(t, repos, docId, 1, 0)
	if err := repos.Images.UpdateFigureLink(context.Background(), img.Id, "1-1", "Pre-existing link.", chunks[0].Id); err != nil {
		t.Fatalf("UpdateFigureLink: %v", err)
	}

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.FigureLinks != 0 {
		t.Errorf("FigureLinks = %d, want 0 on already-linked image", summary.FigureLinks)
	}
	got, _ := repos.Images.GetImage(context.Background(), img.Id)
	if got.FigureNumber != "1-1" {
		t.Errorf("FigureNumber = %q, existing link was overridden", got.FigureNumber)
	}
}

func TestLinkErrorCodeBacklink(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-codes")

	chunks := seedChunks(t, repos, docId, map[int][]string{
		1: {"General troubleshooting notes."},
		2: {"Error 49.38.07 indicates a firmware failure.", "If 49.38.07 persists, reflash the firmware."},
	})

	code := &core.ErrorCode{
		Id:           core.ErrorCodeID(docId, "49.38.07"),
		DocumentId:   docId,
		Code:         "49.38.07",
		Description: "Firmware failure",
		Confidence:  0.7,
		ParentCode:  "49",
	}
	if _, err := repos.ErrorCodes.UpsertErrorCode(context.Background(), code); err != nil {
		t.Fatalf("UpsertErrorCode: %v", err)
	}

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.CodeLinks != 1 {
		t.Fatalf("CodeLinks = %d, want 1", summary.CodeLinks)
	}

	got, err := repos.ErrorCodes.GetErrorCode(context.Background(), code.Id)
	if err != nil {
		t.Fatalf("GetErrorCode: %v", err)
	}
	// First mention in document order, not the later restatement.
	if got.ChunkId != chunks[1].Id {
		t.Errorf("ChunkId = %d, want first mentioning chunk %d", got.ChunkId, chunks[1].Id)
	}
}

func TestLinkErrorCodeExistingLinkKept(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-codes-sticky")

	seedChunks(t, repos, docId, map[int][]string{
		1: {"Code E045 appears on the control panel."},
	})

	code := &core.ErrorCode{
		Id:         core.ErrorCodeID(docId, "E045"),
		DocumentId: docId,
		Code:       "E045",
		Confidence: 0.7,
		ChunkId:    core.ChunkID(docId, 99, 99),
	}
	if _, err := repos.ErrorCodes.UpsertErrorCode(context.Background(), code); err != nil {
		t.Fatalf("UpsertErrorCode: %v", err)
	}

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.CodeLinks != 0 {
		t.Errorf("CodeLinks = %d, want 0 for already-linked code", summary.CodeLinks)
	}
}

func TestLinkSkipsCategories(t *testing.T) {
	linker, repos := newTestLinker(t, Config{})
	docId := core.IDFromContent("link-category")

	seedChunks(t, repos, docId, map[int][]string{
		1: {"Section 13 covers jams such as 13.B9.Az in detail."},
	})
	if _, err := repos.ErrorCodes.EnsureCategory(context.Background(), docId, "13"); err != nil {
		t.Fatalf("EnsureCategory: %v", err)
	}

	summary, err := linker.LinkDocument(context.Background(), docId)
	if err != nil {
		t.Fatalf("LinkDocument: %v", err)
	}
	if summary.CodeLinks != 0 {
		t.Errorf("CodeLinks = %d, want 0 for category rows", summary.CodeLinks)
	}
}

func TestSentenceAround(t *testing.T) {
	text := "Remove the cover. See Figure 2 here! Then continue."
	loc := figurePattern.FindStringIndex(text)
	if loc == nil {
		t.Fatal("pattern did not match test text")
	}
	got := sentenceAround(text, loc[0], loc[1])
	if got != "See Figure 2 here!" {
		t.Errorf("sentenceAround = %q", got)
	}
}
