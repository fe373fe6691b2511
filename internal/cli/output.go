package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
)

// printer 按--format输出命令结果
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) *printer {
	return &printer{format: opts.Format, w: w}
}

// print json/yaml直接序列化v,text格式调用text输出
func (p *printer) print(v any, text func(w io.Writer) error) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(p.w)
	}
}

func status(b book.Book) string {
	if b.IsBorrowed() {
		return "借出:" + b.Borrower()
	}
	return "在库"
}

func writeBookTable(w io.Writer, books []book.Book) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t书名\t作者\tISBN\t分类\t状态")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.ISBN, b.Category, status(b))
	}
	return tw.Flush()
}

func writeBookLine(w io.Writer, action string, b book.Book) error {
	_, err := fmt.Fprintf(w, "%s [%s] 《%s》 %s %s %s\n", action, b.ID, b.Title, b.Author, b.ISBN, status(b))
	return err
}

func writeStats(w io.Writer, s book.Stats) error {
	_, err := fmt.Fprintf(w, "总藏书: %d\n借出: %d\n分类: %d\n作者: %d\n", s.Total, s.Borrowed, s.Categories, s.Authors)
	return err
}

func writeLookup(w io.Writer, r enrich.Result) error {
	if !r.Found {
		_, err := fmt.Fprintf(w, "未找到ISBN %s 的图书信息，请手动填写\n", r.ISBN)
		return err
	}
	_, err := fmt.Fprintf(w, "ISBN: %s\n书名: %s\n作者: %s\n分类: %s\n来源: %s\n", r.ISBN, r.Title, r.Author, r.Category, r.Source)
	return err
}
