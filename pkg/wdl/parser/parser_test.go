package parser

import "testing"

func TestParseDocumentVersionDirective(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"dotted", "version 1.0\nworkflow w {}\n", "1.0"},
		{"minor", "version 1.2\nworkflow w {}\n", "1.2"},
		{"draft", "version draft-2\nworkflow w {}\n", "draft-2"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc, err := ParseDocument(c.src, "t.wdl")
			if err != nil {
				t.Fatalf("ParseDocument failed: %v", err)
			}
			if doc.Version != c.want {
				t.Errorf("Version = %q, want %q", doc.Version, c.want)
			}
		})
	}
}

func TestParseDocumentTaskAndWorkflow(t *testing.T) {
	src := `version 1.0

task greet {
  input {
    String name
  }
  command {
    echo "hello ~{name}"
  }
  output {
    String greeting = read_string(stdout())
  }
}

workflow w {
  input {
    String who
  }
  call greet { input: name = who }
  output {
    String result = greet.greeting
  }
}
`
	doc, err := ParseDocument(src, "t.wdl")
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(doc.Tasks) != 1 || doc.Tasks[0].Name != "greet" {
		t.Fatalf("expected task %q, got %+v", "greet", doc.Tasks)
	}
	if doc.Workflow == nil || doc.Workflow.Name != "w" {
		t.Fatalf("expected workflow %q, got %+v", "w", doc.Workflow)
	}
	if len(doc.Workflow.Body) != 1 {
		t.Fatalf("expected one workflow body element, got %d", len(doc.Workflow.Body))
	}
}
