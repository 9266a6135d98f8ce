package query

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"knowledgegalaxy/pkg/domain"
)

var base = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func doc(id string, day int, mods ...func(*domain.Document)) domain.Document {
	d := domain.Document{
		ID:         id,
		Title:      "Doc " + id,
		Visibility: domain.VisibilityPublic,
		CreatedAt:  base.AddDate(0, 0, day),
	}
	for _, m := range mods {
		m(&d)
	}
	return d
}

func ids(docs []domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestFilterBySearchBlankIsIdentity(t *testing.T) {
	docs := []domain.Document{doc("1", 1), doc("2", 2)}
	for _, q := range []string{"", "   "} {
		if got := FilterBySearch(docs, q); !reflect.DeepEqual(ids(got), []string{"1", "2"}) {
			t.Fatalf("query %q: got %v", q, ids(got))
		}
	}
}

func TestFilterBySearchMatchesFields(t *testing.T) {
	docs := []domain.Document{
		doc("title", 1, func(d *domain.Document) { d.Title = "SAP S/4HANA Implementation Guide" }),
		doc("content", 2, func(d *domain.Document) { d.Content = "quarterly sap rollout" }),
		doc("summary", 3, func(d *domain.Document) { d.Summary = "Covers SAP modules" }),
		doc("author", 4, func(d *domain.Document) { d.Author = "Sapna Rao" }),
		doc("tag", 5, func(d *domain.Document) { d.Tags = []string{"Finance", "SAP"} }),
		doc("none", 6, func(d *domain.Document) { d.Title = "Onboarding" }),
	}
	got := ids(FilterBySearch(docs, "SaP"))
	want := []string{"title", "content", "summary", "author", "tag"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestERPGuideScenario(t *testing.T) {
	docs := []domain.Document{
		doc("1", 1, func(d *domain.Document) { d.Title = "ERP Guide"; d.Department = "IT" }),
		doc("2", 2, func(d *domain.Document) { d.Title = "HR Handbook"; d.Department = "HR" }),
	}
	got := Apply(docs, domain.SearchFilters{Query: "erp"})
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Fatalf("query erp: got %v", ids(got))
	}
	got = Apply(docs, domain.SearchFilters{Query: "erp", Department: "HR"})
	if len(got) != 0 {
		t.Fatalf("query erp + HR: expected nothing, got %v", ids(got))
	}
}

func TestFilterByFacets(t *testing.T) {
	docs := []domain.Document{
		doc("a", 1, func(d *domain.Document) { d.Department = "IT"; d.FileType = domain.FileTypePDF }),
		doc("b", 2, func(d *domain.Document) {
			d.Department = "IT"
			d.Visibility = domain.VisibilityPrivate
			d.FileType = domain.FileTypePDF
		}),
		doc("c", 3, func(d *domain.Document) { d.Department = "HR"; d.FileType = domain.FileTypeDoc }),
	}
	tests := []struct {
		name                string
		dept, vis, fileType string
		want                []string
	}{
		{name: "no constraint", want: []string{"a", "b", "c"}},
		{name: "department", dept: "IT", want: []string{"a", "b"}},
		{name: "department and visibility", dept: "IT", vis: "public", want: []string{"a"}},
		{name: "file type", fileType: "doc", want: []string{"c"}},
		{name: "no match", dept: "HR", fileType: "pdf", want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(FilterByFacets(docs, tc.dept, tc.vis, tc.fileType))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterByTagsAndDateRange(t *testing.T) {
	docs := []domain.Document{
		doc("a", 1, func(d *domain.Document) { d.Tags = []string{"ERP", "SAP"} }),
		doc("b", 5, func(d *domain.Document) { d.Tags = []string{"erp"} }),
		doc("c", 10, func(d *domain.Document) { d.Tags = []string{"HR"} }),
	}
	if got := ids(FilterByTags(docs, []string{"erp"})); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("tag erp: got %v", got)
	}
	if got := ids(FilterByTags(docs, []string{"ERP", "sap"})); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("tags erp+sap: got %v", got)
	}

	from := base.AddDate(0, 0, 5)
	to := base.AddDate(0, 0, 10)
	got := ids(FilterByDateRange(docs, domain.DateRange{From: &from, To: &to}))
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("inclusive range: got %v", got)
	}
	got = ids(FilterByDateRange(docs, domain.DateRange{To: &from}))
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("open start: got %v", got)
	}
}

func TestUserSubset(t *testing.T) {
	docs := []domain.Document{
		doc("a", 1, func(d *domain.Document) { d.AuthorID = "1" }),
		doc("b", 2, func(d *domain.Document) { d.AuthorID = "2" }),
		doc("c", 3, func(d *domain.Document) { d.AuthorID = "1" }),
	}
	if got := ids(UserSubset(docs, "1")); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestSortByRecencyDoesNotModifyInput(t *testing.T) {
	docs := []domain.Document{doc("old", 1), doc("new", 3), doc("mid", 2)}
	got := ids(SortByRecency(docs))
	if !reflect.DeepEqual(got, []string{"new", "mid", "old"}) {
		t.Fatalf("got %v", got)
	}
	if !reflect.DeepEqual(ids(docs), []string{"old", "new", "mid"}) {
		t.Fatalf("input reordered: %v", ids(docs))
	}
}

func TestSortByPopularityTiesByCreatedAt(t *testing.T) {
	docs := []domain.Document{
		doc("a", 1, func(d *domain.Document) { d.Views = 10 }),
		doc("b", 3, func(d *domain.Document) { d.Rating = 2; d.TotalRatings = 5 }),
		doc("c", 2, func(d *domain.Document) { d.Views = 10 }),
		doc("d", 4, func(d *domain.Document) { d.Rating = 4.5; d.TotalRatings = 28; d.Views = 145 }),
	}
	got := ids(SortByPopularity(docs))
	want := []string{"d", "b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if s := PopularityScore(docs[3]); s != 271 {
		t.Fatalf("score = %v, want 271", s)
	}
}

func TestSortByTitleIsLocaleAware(t *testing.T) {
	docs := []domain.Document{
		doc("z", 1, func(d *domain.Document) { d.Title = "zebra" }),
		doc("e", 2, func(d *domain.Document) { d.Title = "Éclair" }),
		doc("a", 3, func(d *domain.Document) { d.Title = "apple" }),
		doc("E", 4, func(d *domain.Document) { d.Title = "Eagle" }),
	}
	got := ids(SortByTitle(docs))
	want := []string{"a", "E", "e", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	vi, err := NewTitleSorter("vi")
	if err != nil {
		t.Fatalf("new sorter: %v", err)
	}
	if got := ids(vi.SortBy(docs, SortTitle)); len(got) != 4 || got[0] != "a" {
		t.Fatalf("vi sort: got %v", got)
	}
	if _, err := NewTitleSorter("not a locale!"); err == nil {
		t.Fatalf("expected bad locale to fail")
	}
}

func TestSortByDispatch(t *testing.T) {
	docs := []domain.Document{
		doc("a", 1, func(d *domain.Document) { d.Views = 5; d.Rating = 4 }),
		doc("b", 2, func(d *domain.Document) { d.Views = 9; d.Rating = 3 }),
	}
	var s *TitleSorter
	cases := map[SortKey][]string{
		SortNone:   {"a", "b"},
		SortRecent: {"b", "a"},
		SortViews:  {"b", "a"},
		SortRating: {"a", "b"},
	}
	for key, want := range cases {
		if got := ids(s.SortBy(docs, key)); !reflect.DeepEqual(got, want) {
			t.Fatalf("sort %q: got %v, want %v", key, got, want)
		}
	}
	if _, err := ParseSortKey("Popular"); err != nil {
		t.Fatalf("parse popular: %v", err)
	}
	if _, err := ParseSortKey("bogus"); err == nil {
		t.Fatalf("expected unknown sort to fail")
	}
}

func TestPaginateReconstructsCollection(t *testing.T) {
	var docs []domain.Document
	for i := 0; i < 23; i++ {
		docs = append(docs, doc(fmt.Sprint(i), i))
	}
	for _, size := range []int{1, 5, 7, 23, 50} {
		first := Paginate(docs, size, 1)
		var all []string
		for p := 1; p <= first.TotalPages; p++ {
			page := Paginate(docs, size, p)
			if page.Page != p {
				t.Fatalf("size %d: page %d reported as %d", size, p, page.Page)
			}
			all = append(all, ids(page.Items)...)
		}
		if !reflect.DeepEqual(all, ids(docs)) {
			t.Fatalf("size %d: pages do not reconstruct collection", size)
		}
	}
}

func TestPaginateClampsAndHandlesEmpty(t *testing.T) {
	docs := []domain.Document{doc("a", 1), doc("b", 2), doc("c", 3)}
	if p := Paginate(docs, 2, 99); p.Page != 2 || !reflect.DeepEqual(ids(p.Items), []string{"c"}) {
		t.Fatalf("clamp high: %+v", p)
	}
	if p := Paginate(docs, 2, -3); p.Page != 1 || len(p.Items) != 2 {
		t.Fatalf("clamp low: %+v", p)
	}
	if p := Paginate(docs, 0, 1); p.PageSize != DefaultPageSize || p.TotalPages != 1 {
		t.Fatalf("default size: %+v", p)
	}
	p := Paginate(nil, 5, 3)
	if p.TotalPages != 0 || p.TotalItems != 0 || p.Page != 1 || p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("empty collection: %+v", p)
	}
}

func TestRecentAndPopular(t *testing.T) {
	var docs []domain.Document
	for i := 0; i < 8; i++ {
		n := i
		docs = append(docs, doc(fmt.Sprint(i), i, func(d *domain.Document) { d.Views = 100 - n }))
	}
	if got := ids(Recent(docs, 5)); !reflect.DeepEqual(got, []string{"7", "6", "5", "4", "3"}) {
		t.Fatalf("recent: %v", got)
	}
	if got := ids(Popular(docs, 5)); !reflect.DeepEqual(got, []string{"0", "1", "2", "3", "4"}) {
		t.Fatalf("popular: %v", got)
	}
	if got := Recent(docs[:2], 5); len(got) != 2 {
		t.Fatalf("short input: %v", ids(got))
	}
}

func TestAggregateByTagCountsEveryOccurrence(t *testing.T) {
	docs := []domain.Document{
		doc("1", 1, func(d *domain.Document) { d.Tags = []string{"HR"} }),
		doc("2", 2, func(d *domain.Document) { d.Tags = []string{"HR", "IT"} }),
		doc("3", 3, func(d *domain.Document) { d.Tags = []string{"IT"} }),
	}
	got := AggregateByField(docs, ByTag)
	want := []Count{{Value: "HR", Count: 2}, {Value: "IT", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestAggregateOrdersByCountThenFirstSeen(t *testing.T) {
	docs := []domain.Document{
		doc("1", 1, func(d *domain.Document) { d.Department = "Finance" }),
		doc("2", 2, func(d *domain.Document) { d.Department = "HR" }),
		doc("3", 3, func(d *domain.Document) { d.Department = "IT" }),
		doc("4", 4, func(d *domain.Document) { d.Department = "IT" }),
		doc("5", 5, func(d *domain.Document) { d.Department = "" }),
	}
	got := AggregateByField(docs, ByDepartment)
	want := []Count{{Value: "IT", Count: 2}, {Value: "Finance", Count: 1}, {Value: "HR", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if empty := AggregateByField(nil, ByTag); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil tally, got %#v", empty)
	}
}

func TestComputeStats(t *testing.T) {
	docs := []domain.Document{
		doc("1", 1, func(d *domain.Document) {
			d.AuthorID, d.Author = "1", "Minh Anh"
			d.Rating, d.TotalRatings, d.Views = 5, 1, 10
		}),
		doc("2", 2, func(d *domain.Document) {
			d.AuthorID, d.Author = "2", "Tuan"
			d.Rating, d.TotalRatings, d.Views = 2, 3, 20
		}),
		doc("3", 3, func(d *domain.Document) {
			d.AuthorID, d.Author = "1", "Minh Anh"
			d.Rating, d.TotalRatings, d.Views = 3, 0, 5
		}),
	}
	s := ComputeStats(docs)
	if s.TotalDocuments != 3 || s.TotalViews != 35 || s.TotalRatings != 4 {
		t.Fatalf("totals: %+v", s)
	}
	if s.AverageRating != 2.75 {
		t.Fatalf("weighted average = %v, want 2.75", s.AverageRating)
	}
	if len(s.TopAuthors) != 2 || s.TopAuthors[0].Value != "Minh Anh" {
		t.Fatalf("contributors: %+v", s.TopAuthors)
	}

	u := ComputeUserStats(docs, "1")
	if u.Documents != 2 || u.TotalViews != 15 || u.AverageRating != 4 {
		t.Fatalf("user stats: %+v", u)
	}
	if z := ComputeUserStats(docs, "nobody"); z.AverageRating != 0 || z.Documents != 0 {
		t.Fatalf("empty user stats: %+v", z)
	}
}

func TestMemoKeysByGeneration(t *testing.T) {
	m := NewMemo(time.Minute)
	calls := 0
	compute := func() (int, error) {
		calls++
		return calls, nil
	}
	v1, _ := Get(m, 1, "stats", compute)
	v2, _ := Get(m, 1, "stats", compute)
	if v1 != 1 || v2 != 1 || calls != 1 {
		t.Fatalf("expected cached value, got %d %d after %d calls", v1, v2, calls)
	}
	v3, _ := Get(m, 2, "stats", compute)
	if v3 != 2 || calls != 2 {
		t.Fatalf("new generation must recompute, got %d after %d calls", v3, calls)
	}
	failing := func() (int, error) { return 0, fmt.Errorf("boom") }
	if _, err := Get(m, 3, "stats", failing); err == nil {
		t.Fatalf("expected compute error to surface")
	}
	if m.Len() != 2 {
		t.Fatalf("errors must not be cached, len=%d", m.Len())
	}
}
