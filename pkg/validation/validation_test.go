package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

func validDocumentInput() *types.DocumentInput {
	return &types.DocumentInput{
		TipoDocumento:          "Exame",
		EspecialidadeMedica:    "Cardiologia",
		DataSolicitacaoEmissao: "2025-03-10",
		ProfissionalSolicitante: types.ProfessionalSnapshotInput{
			Nome:           "Dra. Helena Costa",
			NumeroRegistro: "CRM-SP 123456",
		},
		Descricao: "Ecocardiograma transtorácico",
		Instituicao: types.InstitutionSnapshotInput{
			Nome: "Hospital Santa Clara",
		},
	}
}

func TestCheck_ValidDocumentPasses(t *testing.T) {
	assert.Empty(t, Check(validDocumentInput()))
}

func TestCheck_MissingRequiredFields(t *testing.T) {
	input := validDocumentInput()
	input.Descricao = ""
	input.ProfissionalSolicitante.Nome = ""

	errs := Check(input)
	require.Len(t, errs, 2)

	fields := []string{errs[0].Field, errs[1].Field}
	assert.Contains(t, fields, "descricao")
	assert.Contains(t, fields, "profissionalSolicitante.nome")
	assert.Equal(t, "campo obrigatório", errs[0].Message)
}

func TestCheck_RejectsUnknownDocumentType(t *testing.T) {
	input := validDocumentInput()
	input.TipoDocumento = "Prontuário"

	errs := Check(input)
	require.Len(t, errs, 1)
	assert.Equal(t, "tipoDocumento", errs[0].Field)
	assert.Equal(t, "tipo de documento inválido", errs[0].Message)
}

func TestCheck_AcceptsEveryDocumentType(t *testing.T) {
	for _, docType := range types.ValidDocumentTypes {
		input := validDocumentInput()
		input.TipoDocumento = docType
		assert.Empty(t, Check(input), "type %q should validate", docType)
	}
}

func TestCheck_RejectsMalformedDate(t *testing.T) {
	input := validDocumentInput()
	input.DataSolicitacaoEmissao = "10/03/2025"

	errs := Check(input)
	require.Len(t, errs, 1)
	assert.Equal(t, "dataSolicitacaoEmissao", errs[0].Field)
	assert.Equal(t, "data inválida", errs[0].Message)
}

func TestCheck_ShortPassword(t *testing.T) {
	errs := Check(&types.LoginRequest{Senha: "abc"})
	require.Len(t, errs, 1)
	assert.Equal(t, "senha", errs[0].Field)
	assert.Equal(t, "deve ter no mínimo 4 caracteres", errs[0].Message)
}

func TestCheck_ProfessionalEmailFormat(t *testing.T) {
	email := "não-é-email"
	input := &types.ProfessionalInput{
		Nome:           "Dr. Souza",
		NumeroRegistro: "CRM-RJ 7890",
		Especialidade:  "Ortopedia",
		Email:          &email,
	}

	errs := Check(input)
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "email inválido", errs[0].Message)
}

func TestParseDate_AcceptedLayouts(t *testing.T) {
	cases := []string{
		"2025-03-10",
		"2025-03-10T14:30:00",
		"2025-03-10T14:30:00Z",
		"2025-03-10T14:30:00-03:00",
	}
	for _, value := range cases {
		parsed, err := ParseDate(value)
		require.NoError(t, err, "value %q", value)
		assert.Equal(t, time.March, parsed.Month())
	}
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "ontem", "10/03/2025", "2025-13-40"} {
		_, err := ParseDate(value)
		assert.Error(t, err, "value %q", value)
	}
}
