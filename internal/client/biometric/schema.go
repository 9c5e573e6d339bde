package biometric

import "github.com/xeipuuv/gojsonschema"

// resultSchema is the shape of the last line the SDK process prints.
const resultSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "record": {
      "type": "object",
      "required": ["helperData", "verifierHash"],
      "properties": {
        "helperData": {"type": "string", "minLength": 1},
        "verifierHash": {"type": "string", "minLength": 1}
      }
    },
    "key": {"type": "string", "minLength": 1},
    "error": {"type": "string"}
  },
  "oneOf": [
    {
      "properties": {"success": {"enum": [true]}},
      "anyOf": [{"required": ["record"]}, {"required": ["key"]}]
    },
    {
      "properties": {"success": {"enum": [false]}},
      "required": ["error"]
    }
  ]
}`

var resultLoader = gojsonschema.NewStringLoader(resultSchema)

func validateResult(line []byte) (bool, string, error) {
	res, err := gojsonschema.Validate(resultLoader, gojsonschema.NewBytesLoader(line))
	if err != nil {
		return false, "", err
	}
	if res.Valid() {
		return true, "", nil
	}

	msg := ""
	for i, e := range res.Errors() {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
	}
	return false, msg, nil
}
