package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

type testProviderConfig struct {
	ApiKey    string `json:"apiKey" jsonschema:"title=API Key" secret:"true"`
	SecretKey string `json:"secretKey,omitempty" jsonschema:"title=Secret Key" secret:"true"`
	BaseURL   string `json:"baseUrl" jsonschema:"title=Base URL,default=https://paper-api.alpaca.markets"`
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	schema, err := ToJSONSchema(testProviderConfig{})
	suite.Require().NoError(err)
	suite.NotEmpty(schema)

	var decoded map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))

	properties, ok := decoded["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "apiKey")
	suite.Contains(properties, "baseUrl")
}

func (suite *JsonSchemaTestSuite) TestSecretFields() {
	suite.Equal([]string{"apiKey", "secretKey"}, SecretFields(testProviderConfig{}))
	suite.Equal([]string{"apiKey", "secretKey"}, SecretFields(&testProviderConfig{}))
	suite.Nil(SecretFields("not a struct"))
}

func (suite *JsonSchemaTestSuite) TestRedact() {
	values := map[string]any{"apiKey": "abc", "secretKey": "", "baseUrl": "https://example"}
	redacted := Redact(values, []string{"apiKey", "secretKey", "missing"})

	suite.Equal("********", redacted["apiKey"])
	suite.Equal("", redacted["secretKey"])
	suite.Equal("https://example", redacted["baseUrl"])
	suite.Equal("abc", values["apiKey"])
}
