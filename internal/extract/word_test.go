package extract

import "testing"

func TestFlattenDocumentXML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"runs and paragraphs",
			`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Engineer</w:t></w:r></w:p>`,
			"Jane Doe\nEngineer\n",
		},
		{
			"attributes on w:t",
			`<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>`,
			"Hello World\n",
		},
		{
			"tabs and breaks",
			`<w:p><w:r><w:t>left</w:t><w:tab/><w:t>right</w:t><w:br/><w:t>below</w:t></w:r></w:p>`,
			"left\tright\nbelow\n",
		},
		{
			"xml entities",
			`<w:p><w:r><w:t>C&amp;O, &lt;html&gt;</w:t></w:r></w:p>`,
			"C&O, <html>\n",
		},
		{
			"no text runs",
			`<w:p><w:r></w:r></w:p>`,
			"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flattenDocumentXML(tt.in); got != tt.want {
				t.Fatalf("flattenDocumentXML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScanBinaryTextRuns(t *testing.T) {
	t.Run("single byte runs", func(t *testing.T) {
		data := append([]byte{0x01, 0x02}, []byte("readable resume text")...)
		data = append(data, 0xff, 0xfe)
		got := scanBinaryTextRuns(data)
		if got != "readable resume text" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("utf16 runs", func(t *testing.T) {
		var data []byte
		for _, r := range "wide body text" {
			data = append(data, byte(r), 0x00)
		}
		got := scanBinaryTextRuns(data)
		if got != "wide body text" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("short runs dropped", func(t *testing.T) {
		data := []byte{0x00, 'a', 'b', 0x00, 'c', 0x00}
		if got := scanBinaryTextRuns(data); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
}
