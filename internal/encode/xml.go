package encode

import (
	"encoding/xml"

	"github.com/John-Robertt/mvconv/internal/domain"
)

type moviesDoc struct {
	XMLName xml.Name   `xml:"Movies"`
	Movies  []movieXML `xml:"Movie"`
}

type movieXML struct {
	fields []domain.Field
}

type directorXML struct {
	Name string `xml:"Name"`
}

// MarshalXML 按 Movie.Fields 的顺序逐个输出子元素（encoding/xml 的 struct tag 无法表达“交错顺序”）。
func (m movieXML) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range m.fields {
		el := xml.StartElement{Name: xml.Name{Local: f.Kind.String()}}
		var err error
		switch f.Kind {
		case domain.FieldDirector:
			err = e.EncodeElement(directorXML{Name: f.Text}, el)
		case domain.FieldYear:
			// Year 统一按文本输出（整数也一样）。
			err = e.EncodeElement(f.Year.String(), el)
		default:
			err = e.EncodeElement(f.Text, el)
		}
		if err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// XML 把 Movie 列表编码为 <Movies><Movie>...</Movie></Movies>。
//
// 规则：
// - 每个 Movie 的子元素顺序与 JSON 字段列表一致：Title, Genre, Director..., Studio, Year
// - Director 输出为 <Director><Name>..</Name></Director>，每位导演一个
// - 2 空格缩进，带标准 XML 声明，末尾换行
func XML(movies []domain.Movie) ([]byte, error) {
	doc := moviesDoc{Movies: make([]movieXML, 0, len(movies))}
	for _, m := range movies {
		doc.Movies = append(doc.Movies, movieXML{fields: m.Fields()})
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(b)+1)
	out = append(out, xml.Header...)
	out = append(out, b...)
	return append(out, '\n'), nil
}
