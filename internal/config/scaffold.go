package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScaffoldParams fill the generated gantry.yaml and task definition
// template produced by `gantry init`.
type ScaffoldParams struct {
	Cluster    string
	Service    string
	Region     string
	Repository string
	Container  string
	Port       int
}

const scaffoldConfig = `version: "1"

service:
  cluster: %s
  service: %s
  region: %s

image:
  repository: %s

build:
  context: .
  base_image: node:20-alpine
  workdir: /usr/src/app
  manifest: package.json
  install: npm ci --omit=dev
  command: node server.js
  port: %d

task:
  template: taskdef.json
  container: %s

deploy:
  wait: true
  timeout: 10m
`

const scaffoldTemplate = `{
  "family": "%[1]s",
  "networkMode": "bridge",
  "cpu": "256",
  "memory": "512",
  "containerDefinitions": [
    {
      "name": "%[1]s",
      "image": "%[2]s:latest",
      "essential": true,
      "portMappings": [
        {
          "containerPort": %[3]d,
          "protocol": "tcp"
        }
      ],
      "logConfiguration": {
        "logDriver": "awslogs",
        "options": {
          "awslogs-group": "/ecs/%[1]s",
          "awslogs-region": "%[4]s",
          "awslogs-stream-prefix": "ecs"
        }
      }
    }
  ]
}
`

// ScaffoldConfig renders the initial gantry.yaml contents.
func ScaffoldConfig(p ScaffoldParams) string {
	return fmt.Sprintf(scaffoldConfig, p.Cluster, p.Service, p.Region, p.Repository, p.Port, p.Container)
}

// ScaffoldTemplate renders the initial task definition template contents.
func ScaffoldTemplate(p ScaffoldParams) string {
	return fmt.Sprintf(scaffoldTemplate, p.Container, p.Repository, p.Port, p.Region)
}

// Scaffold writes gantry.yaml and taskdef.json into dir. Existing files are
// never overwritten; the returned slice lists the paths actually created.
func Scaffold(dir string, p ScaffoldParams) ([]string, error) {
	if strings.TrimSpace(p.Container) == "" {
		p.Container = p.Service
	}

	files := []struct {
		name    string
		content string
	}{
		{ConfigFileName, ScaffoldConfig(p)},
		{DefaultTemplate, ScaffoldTemplate(p)},
	}

	var created []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := atomicWrite(path, []byte(f.content), 0o644); err != nil {
			return created, fmt.Errorf("writing %s: %w", f.name, err)
		}
		created = append(created, path)
	}
	return created, nil
}
