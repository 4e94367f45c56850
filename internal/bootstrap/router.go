package bootstrap

import (
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stackdeck-app/stackdeck-backend/internal/auth"
	"github.com/stackdeck-app/stackdeck-backend/internal/catalog"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
	"github.com/stackdeck-app/stackdeck-backend/internal/roles"
	"github.com/stackdeck-app/stackdeck-backend/internal/users"

	httpapi "github.com/stackdeck-app/stackdeck-backend/internal/api/http"
	commithttp "github.com/stackdeck-app/stackdeck-backend/internal/commits/http"
	commitrepo "github.com/stackdeck-app/stackdeck-backend/internal/commits/repository"
	commitsvc "github.com/stackdeck-app/stackdeck-backend/internal/commits/service"
	drafthttp "github.com/stackdeck-app/stackdeck-backend/internal/drafts/http"
	draftrepo "github.com/stackdeck-app/stackdeck-backend/internal/drafts/repository"
	draftsvc "github.com/stackdeck-app/stackdeck-backend/internal/drafts/service"
	projhttp "github.com/stackdeck-app/stackdeck-backend/internal/projects/http"
	projrepo "github.com/stackdeck-app/stackdeck-backend/internal/projects/repository"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins string
	AdminGroup  string
	AuthClient  *fbauth.Client
	Store       kvstore.Store
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if dep.CORSOrigins == "" || dep.CORSOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(dep.CORSOrigins, ",")
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version)
	healthHandler.RegisterRoutes(r)

	userRepo := users.NewRepo(dep.Store)
	rolesRepo := roles.NewRepo(dep.Store)
	resolver := roles.NewResolver(rolesRepo, dep.AdminGroup)
	catalogRepo := catalog.NewRepo(dep.Store)
	projectRepo := projrepo.New(dep.Store)
	draftRepo := draftrepo.New(dep.Store)
	commitRepo := commitrepo.New(dep.Store)

	draftService := draftsvc.New(draftRepo, projectRepo, resolver, userRepo)
	commitService := commitsvc.New(commitRepo, draftRepo, projectRepo, resolver)

	api := r.Group("/api/v1")
	api.Use(auth.Middleware(dep.AuthClient))
	api.Use(auth.RegistryTouch(userRepo))

	projectsGroup := api.Group("/projects")
	projhttp.NewHandler(projectRepo, resolver).Register(projectsGroup)
	drafthttp.NewHandler(draftService).Register(projectsGroup)
	commithttp.NewHandler(commitService).Register(projectsGroup)

	adminGroup := api.Group("/admin")
	drafthttp.NewHandler(draftService).RegisterAdmin(adminGroup)

	rolesGroup := api.Group("/roles")
	roles.NewHandler(rolesRepo, resolver).Register(rolesGroup)

	catalogGroup := api.Group("/catalog")
	catalog.NewHandler(catalogRepo, resolver).Register(catalogGroup)

	return r
}
