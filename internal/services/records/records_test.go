package records

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
)

func record(title string) models.StoredConversationRecord {
	return models.StoredConversationRecord{
		Status:   models.RecordInProgress,
		Title:    title,
		Date:     "2026-10-16",
		Hospital: "서울병원",
		Summary:  "과거 사건: 실직",
	}
}

func TestListDegradesOnCorruptValues(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		count int
	}{
		{name: "not json", raw: "{{{", count: 0},
		{name: "not an array", raw: `{"title":"x"}`, count: 0},
		{
			name:  "filters incomplete entries",
			raw:   `[{"status":"진행중","title":"","date":"d","hospital":"h"},{"title":"x"},null,{"status":1,"title":"t","date":"d","hospital":"h"}]`,
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemory()
			require.NoError(t, store.Set(context.Background(), kv.RecordsKey, tt.raw))

			got, err := NewService(store).List(context.Background())
			require.NoError(t, err)
			assert.Len(t, got, tt.count)
		})
	}
}

func TestPrependKeepsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemory())

	require.NoError(t, svc.Prepend(ctx, record("first")))
	require.NoError(t, svc.Prepend(ctx, record("second")))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
	assert.Equal(t, "first", got[1].Title)
}

func TestWritesKeepEntriesTheDashboardSkips(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	legacy := `[{"title":"옛 기록"},{"status":"진행중","title":"a","date":"2025-01-02","hospital":"h"}]`
	require.NoError(t, store.Set(ctx, kv.RecordsKey, legacy))
	svc := NewService(store)

	require.NoError(t, svc.Prepend(ctx, record("new")))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Title)
	assert.Equal(t, "a", got[1].Title)

	// index 1 is the second listed record, third in storage
	toggled, err := svc.Toggle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", toggled.Title)
	assert.Equal(t, models.RecordComplete, toggled.Status)

	raw, err := store.Get(ctx, kv.RecordsKey)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 3)
	assert.Equal(t, "new", stored[0]["title"])
	assert.Equal(t, map[string]any{"title": "옛 기록"}, stored[1])
	assert.Equal(t, "완료", stored[2]["status"])
}

func TestPageClampsIndex(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemory())

	empty, err := svc.Page(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, empty.PageIndex)
	assert.Empty(t, empty.Entries)

	for i := 0; i < 17; i++ {
		require.NoError(t, svc.Prepend(ctx, record(fmt.Sprintf("r%d", i))))
	}

	tests := []struct {
		index     int
		wantIndex int
		wantLen   int
		firstAbs  int
	}{
		{index: -1, wantIndex: 0, wantLen: 8, firstAbs: 0},
		{index: 1, wantIndex: 1, wantLen: 8, firstAbs: 8},
		{index: 2, wantIndex: 2, wantLen: 1, firstAbs: 16},
		{index: 9, wantIndex: 2, wantLen: 1, firstAbs: 16},
	}
	for _, tt := range tests {
		page, err := svc.Page(ctx, tt.index)
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 17, page.Total)
		assert.Equal(t, tt.wantIndex, page.PageIndex)
		require.Len(t, page.Entries, tt.wantLen)
		assert.Equal(t, tt.firstAbs, page.Entries[0].Index)
	}
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemory())
	require.NoError(t, svc.Prepend(ctx, record("a")))

	got, err := svc.Toggle(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RecordComplete, got.Status)

	got, err = svc.Toggle(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RecordInProgress, got.Status)

	stored, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RecordInProgress, stored[0].Status)

	_, err = svc.Toggle(ctx, 5)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestParseSummarySections(t *testing.T) {
	summary := "과거 사건: 회사에서 해고됨\n인지 사고 :  나는  쓸모없다\n● 심리적 고통 (Pain): 매우 높음 ● 감정(E): 슬퍼요 과거 사건: 가족과 다툼"

	sections := ParseSummarySections(summary)
	require.Len(t, sections, len(SummarySectionKeys))

	byKey := map[string]Section{}
	for _, s := range sections {
		byKey[s.Key] = s
	}

	assert.Equal(t, "회사에서 해고됨\n가족과 다툼", byKey["과거 사건"].Content)
	assert.Equal(t, "나는 쓸모없다", byKey["인지 사고"].Content)
	assert.Equal(t, "매우 높음", byKey["심리적 고통 (Pain)"].Content)
	assert.Equal(t, "슬퍼요", byKey["감정(E)"].Content)
	assert.Equal(t, "", byKey["생각(T)"].Content)
	assert.Equal(t, "인지 행동 분석", byKey["과거 사건"].Heading)

	assert.Len(t, NonEmpty(sections), 4)
}

func TestParseSummarySectionsWithoutLabels(t *testing.T) {
	sections := ParseSummarySections("그냥 요약")
	assert.Empty(t, NonEmpty(sections))
}
