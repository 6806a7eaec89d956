package server

import (
	"fmt"

	"github.com/rbright/textpolish/internal/polish"
	"google.golang.org/protobuf/types/known/structpb"
)

func newPolishRequest(text string, hint string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"text": structpb.NewStringValue(text),
	}
	if hint != "" {
		fields["language"] = structpb.NewStringValue(hint)
	}
	return &structpb.Struct{Fields: fields}
}

// parsePolishRequest extracts text and the optional language hint.
func parsePolishRequest(req *structpb.Struct) (string, string, error) {
	textValue, ok := req.GetFields()["text"]
	if !ok {
		return "", "", fmt.Errorf("missing required field %q", "text")
	}
	text, ok := textValue.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", "", fmt.Errorf("field %q must be a string", "text")
	}

	var hint string
	if languageValue, ok := req.GetFields()["language"]; ok {
		switch kind := languageValue.GetKind().(type) {
		case *structpb.Value_StringValue:
			hint = kind.StringValue
		case *structpb.Value_NullValue:
		default:
			return "", "", fmt.Errorf("field %q must be a string", "language")
		}
	}
	return text.StringValue, hint, nil
}

func resultToStruct(result polish.Result) *structpb.Struct {
	changes := make([]*structpb.Value, 0, len(result.Changes))
	for _, change := range result.Changes {
		changes = append(changes, structpb.NewStringValue(change))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"original": structpb.NewStringValue(result.Original),
		"polished": structpb.NewStringValue(result.Polished),
		"language": structpb.NewStringValue(string(result.Language)),
		"changes":  structpb.NewListValue(&structpb.ListValue{Values: changes}),
	}}
}

func structToResult(resp *structpb.Struct) (polish.Result, error) {
	fields := resp.GetFields()
	for _, key := range []string{"original", "polished", "language", "changes"} {
		if _, ok := fields[key]; !ok {
			return polish.Result{}, fmt.Errorf("response missing field %q", key)
		}
	}

	result := polish.Result{
		Original: fields["original"].GetStringValue(),
		Polished: fields["polished"].GetStringValue(),
		Language: polish.Language(fields["language"].GetStringValue()),
		Changes:  []string{},
	}
	for _, change := range fields["changes"].GetListValue().GetValues() {
		result.Changes = append(result.Changes, change.GetStringValue())
	}
	return result, nil
}
