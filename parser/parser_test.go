package parser

import (
	"math"
	"reflect"
	"testing"

	"github.com/aluiziolira/ebook-search/models"
)

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name    string
		book    *models.Book
		wantErr bool
	}{
		{
			name:    "valid book",
			book:    &models.Book{Title: "哈利波特", Link: "https://example.test/b/1", Price: 280},
			wantErr: false,
		},
		{
			name:    "nil book",
			book:    nil,
			wantErr: true,
		},
		{
			name:    "missing title",
			book:    &models.Book{Title: " ", Link: "https://example.test/b/1"},
			wantErr: true,
		},
		{
			name:    "missing link",
			book:    &models.Book{Title: "哈利波特"},
			wantErr: true,
		},
		{
			name:    "nan price",
			book:    &models.Book{Title: "哈利波特", Link: "https://example.test/b/1", Price: math.NaN()},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBook(tt.book)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBook() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "currency and thousands separator", input: "NT$1,280", expected: 1280},
		{name: "dollar with cents", input: "$12.99", expected: 12.99},
		{name: "surrounding text", input: " 特價 350 元 ", expected: 350},
		{name: "empty", input: "", expected: NoPrice},
		{name: "no digits", input: "NT$", expected: NoPrice},
		{name: "lone dot", input: ".", expected: NoPrice},
		{name: "two decimal points", input: "1.2.3", expected: NoPrice},
		{name: "free marker without flag", input: "免費", expected: NoPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if math.IsNaN(got) {
				t.Fatalf("ParsePrice(%q) returned NaN", tt.input)
			}
			if got != tt.expected {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStorePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		free     bool
		expected float64
	}{
		{name: "free marker", input: "免費", expected: 0},
		{name: "english free", input: " Free ", expected: 0},
		{name: "flagged by markup", input: "NT$0", free: true, expected: 0},
		{name: "flag wins over price text", input: "NT$99", free: true, expected: 0},
		{name: "regular price", input: "NT$1,280", expected: 1280},
		{name: "empty", input: "", expected: NoPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStorePrice(tt.input, tt.free); got != tt.expected {
				t.Fatalf("ParseStorePrice(%q, %v) = %v, want %v", tt.input, tt.free, got, tt.expected)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://www.bookwalker.com.tw/search?w=abc&m=0"
	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{name: "root relative", ref: "/product/123", expected: "https://www.bookwalker.com.tw/product/123"},
		{name: "path relative", ref: "product/123", expected: "https://www.bookwalker.com.tw/product/123"},
		{name: "protocol relative", ref: "//cdn.example.test/c.jpg", expected: "https://cdn.example.test/c.jpg"},
		{name: "absolute passes through", ref: "https://img.example.test/a.png?x=1", expected: "https://img.example.test/a.png?x=1"},
		{name: "dot segments", ref: "../a/./b.html", expected: "https://www.bookwalker.com.tw/a/b.html"},
		{name: "empty", ref: "  ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(base, tt.ref); got != tt.expected {
				t.Fatalf("ResolveURL(%q) = %q, want %q", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "ideographic comma", input: "J.K. 羅琳、彭倩文", expected: []string{"J.K. 羅琳", "彭倩文"}},
		{name: "mixed delimiters", input: "甲, 乙，丙／丁,戊", expected: []string{"甲", "乙", "丙", "丁", "戊"}},
		{name: "single name", input: "  村上春樹 ", expected: []string{"村上春樹"}},
		{name: "empty", input: "", expected: nil},
		{name: "only delimiters", input: "、 , ，", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitNames(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("SplitNames(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestComposeTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		subtitle string
		sep      string
		expected string
	}{
		{name: "with subtitle", title: "哈利波特", subtitle: "神秘的魔法石", sep: " / ", expected: "哈利波特 / 神秘的魔法石"},
		{name: "dash separator", title: "Dune", subtitle: "Deluxe Edition", sep: " - ", expected: "Dune - Deluxe Edition"},
		{name: "no subtitle", title: " 哈利波特 ", subtitle: "", sep: " / ", expected: "哈利波特"},
		{name: "blank subtitle", title: "哈利波特", subtitle: "  ", sep: " - ", expected: "哈利波特"},
		{name: "missing title", title: "", subtitle: "外傳", sep: " / ", expected: "外傳"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComposeTitle(tt.title, tt.subtitle, tt.sep); got != tt.expected {
				t.Fatalf("ComposeTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestContributorsAddTagged(t *testing.T) {
	var c Contributors
	for _, entry := range []string{
		"作者 : 川原礫",
		"譯者 : 周庭旭、林冠汾",
		"插畫 : abec",
		"原作 : 某甲",
		"譯者：乙",
		"丙",
	} {
		c.AddTagged(entry)
	}

	if want := []string{"川原礫", "某甲 (原作)", "丙"}; !reflect.DeepEqual(c.Authors, want) {
		t.Fatalf("authors = %#v, want %#v", c.Authors, want)
	}
	if want := []string{"周庭旭", "林冠汾", "乙"}; !reflect.DeepEqual(c.Translators, want) {
		t.Fatalf("translators = %#v, want %#v", c.Translators, want)
	}
	if want := []string{"abec"}; !reflect.DeepEqual(c.Painters, want) {
		t.Fatalf("painters = %#v, want %#v", c.Painters, want)
	}
}

func TestContributorsEmptyStaysNil(t *testing.T) {
	var c Contributors
	c.AddTagged("譯者 : ")
	c.Add("作者", "、")
	if c.Authors != nil || c.Translators != nil || c.Painters != nil {
		t.Fatalf("expected nil collections, got %+v", c)
	}
}
