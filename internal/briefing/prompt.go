package briefing

import (
	"fmt"
	"strings"
	"time"
)

var (
	weekdaysPT = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}
	monthsPT   = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
)

// formatDatePT renders a YYYY-MM-DD date as "domingo, 15 de dezembro de 2024".
// Unparseable input is returned unchanged.
func formatDatePT(date string) string {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		if d, err = time.Parse(time.RFC3339, strings.TrimSpace(date)); err != nil {
			return date
		}
	}
	return fmt.Sprintf("%s, %d de %s de %d", weekdaysPT[d.Weekday()], d.Day(), monthsPT[d.Month()-1], d.Year())
}

// BuildPrompt renders the instruction sent to the model: the competition
// details, the confirmed officials and the six sections to produce.
func BuildPrompt(req Request) string {
	c := req.Competition
	cra := c.CRAResponsible
	if strings.TrimSpace(cra) == "" {
		cra = "Não atribuído"
	}

	attendees := "Nenhum árbitro confirmado ainda"
	if len(req.Attendees) > 0 {
		names := make([]string, 0, len(req.Attendees))
		for _, a := range req.Attendees {
			names = append(names, a.Name)
		}
		attendees = strings.Join(names, ", ")
	}

	var b strings.Builder
	b.WriteString("Aja como um diretor de prova de natação experiente e profissional. ")
	b.WriteString("A sua tarefa é gerar um texto de briefing detalhado para os árbitros de uma competição.\n")
	b.WriteString("O texto deve ser claro, conciso, bem estruturado e utilizar o formato Markdown, em português europeu.\n\n")

	b.WriteString("**Detalhes da Competição:**\n")
	fmt.Fprintf(&b, "- **Nome:** %s\n", c.Name)
	fmt.Fprintf(&b, "- **Data:** %s\n", formatDatePT(c.Date))
	fmt.Fprintf(&b, "- **Local:** %s\n", c.Location)
	fmt.Fprintf(&b, "- **Descrição:** %s\n", c.Description)
	fmt.Fprintf(&b, "- **Nível:** %s\n", c.Level)
	fmt.Fprintf(&b, "- **Piscina:** %s\n", c.PoolType)
	fmt.Fprintf(&b, "- **Responsável CRA:** %s\n\n", cra)

	b.WriteString("**Árbitros Confirmados:**\n")
	fmt.Fprintf(&b, "- %s\n\n", attendees)

	b.WriteString("**Estrutura do Briefing (siga esta estrutura):**\n\n")
	fmt.Fprintf(&b, "### Briefing para a Competição: %s\n\n", c.Name)

	b.WriteString("**1. Boas-vindas e Introdução**\n")
	b.WriteString("- Cumprimente a equipa de arbitragem e agradeça a sua presença.\n")
	b.WriteString("- Apresente brevemente a importância e o nível da competição.\n")
	fmt.Fprintf(&b, "- Mencione o Responsável do CRA presente: %s.\n\n", cra)

	b.WriteString("**2. Horários Importantes**\n")
	b.WriteString("- Reunião de árbitros (sugira uma hora, por exemplo, 45 minutos antes do início).\n")
	b.WriteString("- Início do aquecimento.\n- Início da sessão.\n- Pausas previstas (se aplicável).\n\n")

	b.WriteString("**3. Distribuição de Funções e Postos**\n")
	b.WriteString("- Sugira uma distribuição inicial de funções para os árbitros confirmados (Juiz de Partida, Juiz de Viragem, Cronometrista, etc.).\n")
	b.WriteString("- Se não houver árbitros confirmados, mencione que as funções serão distribuídas na reunião.\n")
	b.WriteString("- Reforce a importância da comunicação e da rotação de postos, se planeada.\n\n")

	b.WriteString("**4. Pontos de Foco e Regras Específicas**\n")
	b.WriteString("- Mencione regras específicas ou pontos de atenção para esta competição (partidas, viragens, desqualificações comuns).\n")
	b.WriteString("- Fale sobre o procedimento de partida e a importância da pontualidade.\n\n")

	b.WriteString("**5. Procedimentos e Logística**\n")
	b.WriteString("- Local da reunião de árbitros.\n- Informações sobre alimentação e hidratação.\n- Código de vestuário.\n\n")

	b.WriteString("**6. Observações Finais**\n")
	b.WriteString("- Deseje a todos uma excelente competição.\n")
	b.WriteString("- Incentive o trabalho em equipa e o profissionalismo.\n\n")

	b.WriteString("Por favor, gere o briefing completo com base nestas informações.\n")
	return b.String()
}
