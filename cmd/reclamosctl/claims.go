package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/portal"
)

func (c *cli) claimsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "claims",
		Aliases: []string{"reclamos"},
		Short:   "List, search and manage claims",
	}
	cmd.AddCommand(
		c.claimsListCommand(),
		c.claimsSearchCommand(),
		c.claimsShowCommand(),
		c.claimsCreateCommand(),
		c.claimsUpdateCommand(),
		c.claimsAssignCommand(),
		c.claimsActivityCommand(),
		c.claimsCommentCommand(),
		c.claimsDeleteCommand(),
	)
	return cmd
}

func (c *cli) claimsListCommand() *cobra.Command {
	var estado, categoria, texto string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List claims with optional filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			if err := c.portal.Navigate(portal.ViewListado); err != nil {
				return err
			}
			return c.printClaims(c.portal.List(portal.ListFilter{
				Text:      texto,
				Estado:    domain.ClaimStatus(estado),
				Categoria: domain.ClaimCategory(categoria),
			}))
		},
	}
	cmd.Flags().StringVar(&estado, "estado", "", "filter by estado")
	cmd.Flags().StringVar(&categoria, "categoria", "", "filter by categoria")
	cmd.Flags().StringVar(&texto, "texto", "", "substring of tracking number, descripcion or barrio")
	return cmd
}

func (c *cli) claimsSearchCommand() *cobra.Command {
	var numero, id, categoria string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find claims by tracking number or id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			q := portal.SearchQuery{By: portal.SearchByTracking, Value: numero, Categoria: domain.ClaimCategory(categoria)}
			if id != "" {
				q.By, q.Value = portal.SearchByID, id
			}
			found := c.portal.Search(q)
			if len(found) == 0 && !c.asJSON {
				c.printf("No se encontraron reclamos\n")
				return nil
			}
			return c.printClaims(found)
		},
	}
	cmd.Flags().StringVar(&numero, "numero", "", "tracking number, e.g. VM-2025-001")
	cmd.Flags().StringVar(&id, "id", "", "internal claim id")
	cmd.Flags().StringVar(&categoria, "categoria", "", "restrict to a categoria")
	cmd.MarkFlagsMutuallyExclusive("numero", "id")
	return cmd
}

func (c *cli) claimsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one claim with its activities and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			found := c.portal.Search(portal.SearchQuery{By: portal.SearchByID, Value: args[0]})
			if len(found) == 0 {
				found = c.portal.Search(portal.SearchQuery{By: portal.SearchByTracking, Value: args[0]})
			}
			if len(found) == 0 {
				return fmt.Errorf("claim %s not found", args[0])
			}
			return c.printClaim(&found[0])
		},
	}
}

func (c *cli) claimsCreateCommand() *cobra.Command {
	var form portal.ClaimForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new claim",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			claim, err := c.portal.CreateClaim(cmd.Context(), form)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.ClaimEnvelope{Claim: dto.NewClaimResponse(claim, c.portal.Location())})
			}
			c.printf("Reclamo %s creado (id %s)\n", claim.NumeroSeguimiento, claim.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Categoria, "categoria", "", "luminaria, bache, maleza, basura, señalizacion or otros")
	f.StringVar(&form.Descripcion, "descripcion", "", "what happened")
	f.StringVar(&form.Calle1, "calle1", "", "main street")
	f.StringVar(&form.Calle2, "calle2", "", "cross street")
	f.StringVar(&form.Calle3, "calle3", "", "second cross street")
	f.StringVar(&form.Altura, "altura", "", "street number")
	f.StringVar(&form.Barrio, "barrio", "", "neighbourhood")
	f.StringVar(&form.NivelUrgencia, "urgencia", "media", "baja, media, alta or urgente")
	f.StringSliceVar(&form.Archivos, "archivo", nil, "attached filename, repeatable")
	return cmd
}

func (c *cli) claimsUpdateCommand() *cobra.Command {
	var patch dto.UpdateClaimRequest
	fields := map[string]**string{
		"categoria":   &patch.Categoria,
		"descripcion": &patch.Descripcion,
		"calle1":      &patch.Calle1,
		"calle2":      &patch.Calle2,
		"calle3":      &patch.Calle3,
		"altura":      &patch.Altura,
		"barrio":      &patch.Barrio,
		"urgencia":    &patch.NivelUrgencia,
		"estado":      &patch.Estado,
	}
	values := make(map[string]*string, len(fields))
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a claim; externos may only change --estado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for name, target := range fields {
				if cmd.Flags().Changed(name) {
					*target = values[name]
				}
			}
			if len(patch.Archivos) == 0 {
				patch.Archivos = nil
			}
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			claim, err := c.portal.UpdateClaim(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return c.printClaim(claim)
		},
	}
	for name := range fields {
		values[name] = cmd.Flags().String(name, "", "new "+name)
	}
	cmd.Flags().StringSliceVar(&patch.Archivos, "archivo", nil, "replace attachments, repeatable")
	return cmd
}

func (c *cli) claimsAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID USER_ID",
		Short: "Route a claim to an externo; the area follows the assignee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			claim, err := c.portal.AssignClaim(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.printClaim(claim)
		},
	}
}

func (c *cli) claimsActivityCommand() *cobra.Command {
	var form portal.ActivityForm
	cmd := &cobra.Command{
		Use:   "activity ID",
		Short: "Log work done on a claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			activity, err := c.portal.AddActivity(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printJSON(dto.ActivityEnvelope{Activity: dto.NewActivityResponse(activity, c.portal.Location())})
			}
			c.printf("Actividad registrada %s\n", activity.Fecha.In(c.portal.Location()).Format(domain.ActivityTimeLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Descripcion, "descripcion", "", "work done")
	cmd.Flags().StringVar(&form.Personal, "personal", "", "crew or staff involved")
	return cmd
}

func (c *cli) claimsCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "comment ID TEXT",
		Short: "Comment on a resolved claim (usuarios and guests)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			claim, err := c.portal.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.printClaim(claim)
		},
	}
}

func (c *cli) claimsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a claim with its activities and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.enter(cmd.Context()); err != nil {
				return err
			}
			if err := c.portal.DeleteClaim(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf("Reclamo eliminado\n")
			return nil
		},
	}
}

func (c *cli) printClaims(claims []domain.Claim) error {
	if c.asJSON {
		return c.printJSON(dto.ClaimListEnvelope{Claims: dto.NewClaimList(claims, c.portal.Location())})
	}
	return c.table("ID\tNÚMERO\tCATEGORÍA\tESTADO\tURGENCIA\tBARRIO\tASIGNADO\tCREADO", func(w io.Writer) {
		for _, claim := range claims {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				claim.ID, claim.NumeroSeguimiento, claim.Categoria.Label(), claim.Estado.Label(),
				claim.NivelUrgencia, claim.Barrio, orDash(claim.AsignadoNombre), domain.FormatDate(claim.FechaCreacion))
		}
	})
}

func (c *cli) printClaim(claim *domain.Claim) error {
	if c.asJSON {
		return c.printJSON(dto.ClaimEnvelope{Claim: dto.NewClaimResponse(claim, c.portal.Location())})
	}
	c.printf("%s  %s  [%s]\n", claim.NumeroSeguimiento, claim.Categoria.Label(), claim.Estado.Label())
	c.printf("%s\n", claim.Descripcion)
	c.printf("Dirección: %s %s", claim.Calle1, claim.Altura)
	if claim.Calle2 != "" {
		c.printf(" y %s", claim.Calle2)
	}
	c.printf(", %s\n", claim.Barrio)
	c.printf("Urgencia: %s  Creado: %s  Actualizado: %s\n", claim.NivelUrgencia,
		domain.FormatDate(claim.FechaCreacion), domain.FormatDate(claim.FechaActualizacion))
	if claim.AreaAsignada != nil {
		c.printf("Asignado a %s (%s)\n", orDash(claim.AsignadoNombre), *claim.AreaAsignada)
	}
	for _, a := range claim.Actividades {
		c.printf("  * %s  %s  (%s)\n", a.Fecha.In(c.portal.Location()).Format(domain.ActivityTimeLayout), a.Descripcion, a.Personal)
	}
	for _, comment := range claim.Comentarios {
		c.printf("  > %s\n", comment)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
